package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/intellichat/intellichat/internal/metrics"
	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/repository"
	"github.com/intellichat/intellichat/internal/webhook"
)

const (
	// DefaultCheckoutTTL is how long a checkout page stays payable.
	DefaultCheckoutTTL = 30 * time.Minute

	checkoutCurrency = "usd"
)

// BillingOptions configures BillingService.
type BillingOptions struct {
	AppID            string
	ClientURL        string
	WebhookSecret    string
	WebhookTolerance time.Duration
	CheckoutTTL      time.Duration
}

// BillingService sells credit plans and settles them from payment webhooks.
type BillingService struct {
	txns     TransactionStore
	payments PaymentGateway
	opts     BillingOptions
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewBillingService creates a new BillingService.
func NewBillingService(txns TransactionStore, payments PaymentGateway, opts BillingOptions, recorder metrics.Recorder, logger *slog.Logger) *BillingService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CheckoutTTL <= 0 {
		opts.CheckoutTTL = DefaultCheckoutTTL
	}
	opts.ClientURL = strings.TrimRight(opts.ClientURL, "/")
	return &BillingService{
		txns:     txns,
		payments: payments,
		opts:     opts,
		metrics:  recorder,
		logger:   logger.With("component", "billing_service"),
		now:      time.Now,
	}
}

// Plans returns the credit catalog.
func (s *BillingService) Plans() []model.Plan {
	return model.Plans
}

// PurchaseResult points the buyer at the hosted checkout page.
type PurchaseResult struct {
	TransactionID string
	URL           string
}

// Purchase records a pending transaction for the plan and opens a checkout
// session carrying its ID. origin is where the buyer returns to; ClientURL is
// used when it is empty.
func (s *BillingService) Purchase(ctx context.Context, user *model.User, planID, origin string) (*PurchaseResult, error) {
	plan, ok := model.FindPlan(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		origin = s.opts.ClientURL
	}
	if origin == "" {
		return nil, invalid("Request origin is required")
	}

	now := s.now().UTC()
	txn := &model.Transaction{
		ID:        newID(),
		UserID:    user.ID,
		PlanID:    plan.ID,
		Amount:    plan.Price,
		Credits:   plan.Credits,
		IsPaid:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.txns.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	session, err := s.payments.CreateCheckoutSession(ctx, model.CheckoutRequest{
		TransactionID: txn.ID,
		AppID:         s.opts.AppID,
		ProductName:   plan.Name,
		Currency:      checkoutCurrency,
		UnitAmount:    plan.PriceCents(),
		SuccessURL:    origin + "/loading",
		CancelURL:     origin,
		ExpiresAt:     now.Add(s.opts.CheckoutTTL),
	})
	if err != nil {
		s.logger.Error("checkout session failed",
			slog.String("transaction_id", txn.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrPaymentGatewayFailed, err)
	}
	if session == nil || session.URL == "" {
		return nil, fmt.Errorf("%w: checkout session has no url", ErrPaymentGatewayFailed)
	}

	s.metrics.IncPurchaseInitiated(plan.ID)
	s.logger.Info("checkout started",
		slog.String("transaction_id", txn.ID),
		slog.String("plan_id", plan.ID),
		slog.String("user_id", user.ID),
	)

	return &PurchaseResult{TransactionID: txn.ID, URL: session.URL}, nil
}

// WebhookOutcome describes what a verified delivery did.
type WebhookOutcome struct {
	Status         string // metrics.WebhookApplied, WebhookIgnored or WebhookDuplicate
	Reason         string
	EventID        string
	TransactionID  string
	CreditsGranted int
}

// HandleWebhook verifies a payment event and grants credits for the matching
// transaction exactly once. Redelivered events find the transaction already
// paid and change nothing.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*WebhookOutcome, error) {
	if s.opts.WebhookSecret == "" {
		s.metrics.IncWebhookEvent(metrics.WebhookInvalidSignature)
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidSignature)
	}
	if err := webhook.VerifyHeader(s.opts.WebhookSecret, sigHeader, payload, s.opts.WebhookTolerance, s.now()); err != nil {
		s.metrics.IncWebhookEvent(metrics.WebhookInvalidSignature)
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	evt, err := webhook.ParseEvent(payload)
	if err != nil {
		s.metrics.IncWebhookEvent(metrics.WebhookIgnored)
		return nil, invalid("Malformed event")
	}

	outcome, err := s.reconcile(ctx, evt)
	if err != nil {
		s.metrics.IncWebhookEvent(metrics.WebhookFailed)
		s.logger.Error("webhook processing failed",
			slog.String("event_id", evt.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.metrics.IncWebhookEvent(outcome.Status)
	s.logger.Info("webhook handled",
		slog.String("event_id", evt.ID),
		slog.String("type", evt.Type),
		slog.String("status", outcome.Status),
		slog.String("reason", outcome.Reason),
	)
	return outcome, nil
}

func (s *BillingService) reconcile(ctx context.Context, evt *webhook.Event) (*WebhookOutcome, error) {
	ignored := func(reason string) *WebhookOutcome {
		return &WebhookOutcome{Status: metrics.WebhookIgnored, Reason: reason, EventID: evt.ID}
	}

	if evt.Type != webhook.EventPaymentIntentSucceeded {
		return ignored("Unhandled event type " + evt.Type), nil
	}

	session, err := s.payments.SessionForPaymentIntent(ctx, evt.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentGatewayFailed, err)
	}
	if session == nil {
		return ignored("Checkout session not found"), nil
	}
	if session.Metadata[model.MetadataAppID] != s.opts.AppID {
		return ignored("Ignored event: Invalid app"), nil
	}

	txnID := session.Metadata[model.MetadataTransactionID]
	if txnID == "" {
		return ignored("Transaction not found or already processed"), nil
	}

	txn, applied, err := s.txns.SettleTransaction(ctx, txnID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return ignored("Transaction not found or already processed"), nil
		}
		return nil, fmt.Errorf("failed to settle transaction: %w", err)
	}
	if !applied {
		return &WebhookOutcome{
			Status:        metrics.WebhookDuplicate,
			Reason:        "Transaction not found or already processed",
			EventID:       evt.ID,
			TransactionID: txnID,
		}, nil
	}

	s.metrics.AddCreditsGranted(txn.Credits)
	return &WebhookOutcome{
		Status:         metrics.WebhookApplied,
		EventID:        evt.ID,
		TransactionID:  txn.ID,
		CreditsGranted: txn.Credits,
	}, nil
}
