package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/intellichat/intellichat/internal/metrics"
	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/repository"
)

// Mode selects the kind of generation a prompt asks for.
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

// Cost returns the credits charged for one generation, or 0 for an unknown mode.
func (m Mode) Cost() int {
	switch m {
	case ModeText:
		return 1
	case ModeImage:
		return 2
	default:
		return 0
	}
}

const defaultPersistTimeout = 15 * time.Second

// MessageOptions tunes the persistence phase of MessageService.
type MessageOptions struct {
	// PersistBeforeReply stores the exchange and debits before Submit returns.
	// When false that work runs in the background after the reply is produced.
	PersistBeforeReply bool
	PersistTimeout     time.Duration
}

// MessageService runs prompts through the generation providers and charges
// credits for them.
type MessageService struct {
	users    UserStore
	chats    ChatStore
	text     TextGenerator
	images   ImageGenerator
	uploader AssetUploader
	gallery  GalleryCache
	opts     MessageOptions
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	pending sync.WaitGroup
}

// MessageDeps bundles the collaborators of MessageService. Gallery may be nil.
type MessageDeps struct {
	Users    UserStore
	Chats    ChatStore
	Text     TextGenerator
	Images   ImageGenerator
	Uploader AssetUploader
	Gallery  GalleryCache
}

// NewMessageService creates a new MessageService.
func NewMessageService(deps MessageDeps, opts MessageOptions, recorder metrics.Recorder, logger *slog.Logger) *MessageService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	return &MessageService{
		users:    deps.Users,
		chats:    deps.Chats,
		text:     deps.Text,
		images:   deps.Images,
		uploader: deps.Uploader,
		gallery:  deps.Gallery,
		opts:     opts,
		metrics:  recorder,
		logger:   logger.With("component", "message_service"),
		now:      time.Now,
	}
}

// SubmitInput defines input for a prompt submission.
type SubmitInput struct {
	User    *model.User
	ChatID  string
	Prompt  string
	Mode    Mode
	Publish bool
}

// SubmitResult is the assistant reply produced for a prompt.
type SubmitResult struct {
	Reply model.Message
}

// Submit generates a reply for the prompt in the user's chat.
//
// The balance is checked before any provider call, and nothing is stored or
// charged when generation fails. On success the prompt and the reply are
// appended to the chat together, then the cost is debited without letting the
// balance go below zero.
func (s *MessageService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	cost := input.Mode.Cost()
	if cost == 0 {
		return nil, invalid("Unsupported message type")
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, invalid("Prompt is required")
	}
	if input.User == nil {
		return nil, ErrUnauthorized
	}

	mode := string(input.Mode)
	if !input.User.HasCredits(cost) {
		s.metrics.IncGeneration(mode, metrics.StatusInsufficientCredits)
		return nil, ErrInsufficientCredits
	}

	if strings.TrimSpace(input.ChatID) == "" {
		return nil, ErrChatNotFound
	}
	if _, err := s.chats.GetChat(ctx, input.ChatID, input.User.ID); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	prompt := model.NewMessage(model.RoleUser, input.Prompt, s.now())

	content, err := s.generate(ctx, input.Mode, input.Prompt)
	if err != nil {
		s.metrics.IncGeneration(mode, metrics.StatusFailed)
		s.logger.Warn("generation failed",
			slog.String("mode", mode),
			slog.String("chat_id", input.ChatID),
			slog.String("user_id", input.User.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	reply := model.NewMessage(model.RoleAssistant, content, s.now())
	reply.IsImage = input.Mode == ModeImage
	reply.IsPublished = reply.IsImage && input.Publish

	job := persistJob{
		userID:  input.User.ID,
		chatID:  input.ChatID,
		cost:    cost,
		entries: []model.Message{prompt, reply},
	}

	if s.opts.PersistBeforeReply {
		if err := s.persist(ctx, job); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
		}
	} else {
		s.persistAsync(ctx, job)
	}

	s.metrics.IncGeneration(mode, metrics.StatusSuccess)
	return &SubmitResult{Reply: reply}, nil
}

// Drain waits for background persistence started by Submit.
func (s *MessageService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MessageService) generate(ctx context.Context, mode Mode, prompt string) (string, error) {
	switch mode {
	case ModeText:
		start := s.now()
		text, err := s.text.GenerateText(ctx, prompt)
		s.metrics.ObserveProviderDuration("text", s.now().Sub(start))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: empty reply", ErrGenerationFailed)
		}
		return text, nil

	case ModeImage:
		start := s.now()
		data, err := s.images.GenerateImage(ctx, prompt)
		s.metrics.ObserveProviderDuration("image", s.now().Sub(start))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}

		start = s.now()
		url, err := s.uploader.Upload(ctx, data, strconv.FormatInt(start.UnixMilli(), 10)+".png")
		s.metrics.ObserveProviderDuration("upload", s.now().Sub(start))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		return url, nil
	}

	return "", invalid("Unsupported message type")
}

type persistJob struct {
	userID  string
	chatID  string
	cost    int
	entries []model.Message
}

func (j persistJob) published() bool {
	for _, m := range j.entries {
		if m.IsImage && m.IsPublished {
			return true
		}
	}
	return false
}

func (s *MessageService) persistAsync(ctx context.Context, job persistJob) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		// The request context ends when the handler returns.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PersistTimeout)
		defer cancel()

		_ = s.persist(ctx, job)
	}()
}

func (s *MessageService) persist(ctx context.Context, job persistJob) error {
	logger := s.logger.With(
		slog.String("chat_id", job.chatID),
		slog.String("user_id", job.userID),
	)

	if err := s.chats.AppendMessages(ctx, job.chatID, job.userID, job.entries...); err != nil {
		s.metrics.IncPersistFailure()
		logger.Error("failed to append messages", slog.String("error", err.Error()))
		return err
	}

	debited, err := s.users.DebitCredits(ctx, job.userID, job.cost)
	switch {
	case err != nil:
		s.metrics.IncPersistFailure()
		logger.Error("failed to debit credits",
			slog.Int("cost", job.cost),
			slog.String("error", err.Error()),
		)
		return err
	case !debited:
		s.metrics.IncDebitSkipped()
		logger.Warn("debit skipped, balance already spent", slog.Int("cost", job.cost))
	default:
		s.metrics.AddCreditsDebited(job.cost)
	}

	if job.published() && s.gallery != nil {
		if err := s.gallery.InvalidatePublishedImages(ctx); err != nil {
			logger.Warn("failed to invalidate gallery", slog.String("error", err.Error()))
		}
	}

	return nil
}
