package imagekit

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/intellichat/intellichat/internal/provider"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func TestGenerationURL(t *testing.T) {
	t.Parallel()

	c := New(Config{URLEndpoint: "https://ik.imagekit.io/demo/", Folder: "/intellichat/"}, nil)
	at := time.UnixMilli(1700000000123)

	got := c.GenerationURL("a cat on the moon", at)
	want := "https://ik.imagekit.io/demo/ik-genimg-prompt-a%20cat%20on%20the%20moon/intellichat/1700000000123.png?tr=w-800,h-800"
	if got != want {
		t.Errorf("GenerationURL() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestGenerateImage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.EscapedPath(), "/ik-genimg-prompt-sunset%20sky/gallery/") {
			t.Errorf("unexpected path %s", r.URL.EscapedPath())
		}
		if r.URL.Query().Get("tr") != "w-800,h-800" {
			t.Errorf("tr = %q", r.URL.Query().Get("tr"))
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer srv.Close()

	c := New(Config{URLEndpoint: srv.URL, Folder: "gallery"}, srv.Client())
	data, err := c.GenerateImage(context.Background(), "sunset sky")
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if string(data) != string(pngBytes) {
		t.Errorf("data = %v, want %v", data, pngBytes)
	}
}

func TestGenerateImage_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    []byte
		wantErr func(error) bool
	}{
		{"upstream error", http.StatusBadGateway, []byte("bad"), func(err error) bool {
			var se *provider.StatusError
			return errors.As(err, &se)
		}},
		{"empty body", http.StatusOK, nil, func(err error) bool { return errors.Is(err, ErrEmptyImage) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write(tt.body)
			}))
			defer srv.Close()

			_, err := New(Config{URLEndpoint: srv.URL}, srv.Client()).GenerateImage(context.Background(), "x")
			if !tt.wantErr(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGenerateImage_NotConfigured(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, nil).GenerateImage(context.Background(), "x"); !errors.Is(err, provider.ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "private_key" || pass != "" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}

		wantFile := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
		if got := r.FormValue("file"); got != wantFile {
			t.Errorf("file = %q, want %q", got, wantFile)
		}
		if got := r.FormValue("fileName"); got != "1700000000000.png" {
			t.Errorf("fileName = %q", got)
		}
		if got := r.FormValue("folder"); got != "intellichat" {
			t.Errorf("folder = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fileId":"f1","name":"1700000000000.png","url":"https://ik.imagekit.io/demo/intellichat/1700000000000.png"}`))
	}))
	defer srv.Close()

	c := New(Config{PrivateKey: "private_key", Folder: "intellichat", UploadURL: srv.URL}, srv.Client())
	got, err := c.Upload(context.Background(), pngBytes, "1700000000000.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if got != "https://ik.imagekit.io/demo/intellichat/1700000000000.png" {
		t.Errorf("Upload() = %q", got)
	}
}

func TestUpload_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr func(error) bool
	}{
		{"rejected", http.StatusUnauthorized, `{"message":"Your account cannot be authenticated."}`, func(err error) bool {
			var se *provider.StatusError
			return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
		}},
		{"missing url", http.StatusOK, `{"fileId":"f1"}`, func(err error) bool { return errors.Is(err, ErrMissingURL) }},
		{"garbage", http.StatusOK, `<html>`, func(err error) bool { return err != nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(Config{PrivateKey: "k", UploadURL: srv.URL}, srv.Client())
			if _, err := c.Upload(context.Background(), pngBytes, "x.png"); !tt.wantErr(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpload_NotConfigured(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, nil).Upload(context.Background(), pngBytes, "x.png"); !errors.Is(err, provider.ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}
