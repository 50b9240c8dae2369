// Package imagekit generates images through ImageKit's prompt transformation
// and uploads them to the ImageKit media library.
package imagekit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/intellichat/intellichat/internal/provider"
)

const (
	// DefaultUploadURL is ImageKit's upload API.
	DefaultUploadURL = "https://upload.imagekit.io/api/v1/files/upload"

	// imageTransform is the size requested from the generator.
	imageTransform = "w-800,h-800"

	// maxImageSize bounds the generated image read into memory.
	maxImageSize = 20 << 20
)

var (
	// ErrEmptyImage is returned when the generator answers with no bytes.
	ErrEmptyImage = errors.New("imagekit: empty image")
	// ErrMissingURL is returned when an upload response carries no URL.
	ErrMissingURL = errors.New("imagekit: upload response has no url")
)

// Config holds ImageKit credentials.
type Config struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
	Folder      string
	UploadURL   string
}

// Client generates and hosts images.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// New creates a client. A nil httpClient gets provider.NewHTTPClient's defaults.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	cfg.URLEndpoint = strings.TrimRight(cfg.URLEndpoint, "/")
	cfg.Folder = strings.Trim(cfg.Folder, "/")
	if httpClient == nil {
		httpClient = provider.NewHTTPClient(0)
	}
	return &Client{cfg: cfg, http: httpClient, now: time.Now}
}

// GenerationURL builds the prompt transformation URL for a prompt.
func (c *Client) GenerationURL(prompt string, at time.Time) string {
	return fmt.Sprintf("%s/ik-genimg-prompt-%s/%s/%d.png?tr=%s",
		c.cfg.URLEndpoint,
		url.PathEscape(prompt),
		c.cfg.Folder,
		at.UnixMilli(),
		imageTransform,
	)
}

// GenerateImage fetches the generated PNG for prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if c.cfg.URLEndpoint == "" {
		return nil, fmt.Errorf("imagekit: %w", provider.ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GenerationURL(prompt, c.now()), nil)
	if err != nil {
		return nil, fmt.Errorf("imagekit: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagekit: generate: %w", err)
	}
	defer resp.Body.Close()

	if err := provider.CheckResponse("imagekit", resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("imagekit: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}

type uploadResponse struct {
	FileID  string `json:"fileId"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// Upload stores a PNG under the configured folder and returns its public URL.
func (c *Client) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	if c.cfg.PrivateKey == "" {
		return "", fmt.Errorf("imagekit: %w", provider.ErrNotConfigured)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ key, value string }{
		{"file", "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)},
		{"fileName", fileName},
		{"folder", c.cfg.Folder},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return "", fmt.Errorf("imagekit: write %s: %w", f.key, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("imagekit: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("imagekit: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(c.cfg.PrivateKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagekit: upload: %w", err)
	}
	defer resp.Body.Close()

	if err := provider.CheckResponse("imagekit", resp); err != nil {
		return "", err
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("imagekit: decode upload response: %w", err)
	}
	if decoded.URL == "" {
		return "", ErrMissingURL
	}
	return decoded.URL, nil
}
