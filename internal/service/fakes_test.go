package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

type fakeUserStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	debitErr  error
	createErr error
	debits    int
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*model.User)}
	for _, u := range users {
		cp := *u
		s.users[u.ID] = &cp
	}
	return s
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeUserStore) DebitCredits(_ context.Context, userID string, amount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debitErr != nil {
		return false, s.debitErr
	}
	u, ok := s.users[userID]
	if !ok || u.Credits < amount {
		return false, nil
	}
	u.Credits -= amount
	s.debits++
	return true, nil
}

func (s *fakeUserStore) grant(userID string, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID].Credits += amount
}

func (s *fakeUserStore) balance(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].Credits
}

type fakeChatStore struct {
	mu        sync.Mutex
	chats     map[string]*model.Chat
	appendErr error
	getErr    error
	appends   int
}

func newFakeChatStore(chats ...*model.Chat) *fakeChatStore {
	s := &fakeChatStore{chats: make(map[string]*model.Chat)}
	for _, c := range chats {
		cp := *c
		s.chats[c.ID] = &cp
	}
	return s
}

func (s *fakeChatStore) CreateChat(_ context.Context, chat *model.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *chat
	s.chats[chat.ID] = &cp
	return nil
}

func (s *fakeChatStore) GetChat(_ context.Context, id, userID string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	c, ok := s.chats[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrChatNotFound
	}
	cp := *c
	cp.Messages = append([]model.Message(nil), c.Messages...)
	return &cp, nil
}

func (s *fakeChatStore) ListChats(_ context.Context, userID string) ([]*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Chat
	for _, c := range s.chats {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *fakeChatStore) DeleteChat(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok || c.UserID != userID {
		return repository.ErrChatNotFound
	}
	delete(s.chats, id)
	return nil
}

func (s *fakeChatStore) AppendMessages(_ context.Context, id, userID string, messages ...model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	c, ok := s.chats[id]
	if !ok || c.UserID != userID {
		return repository.ErrChatNotFound
	}
	c.Messages = append(c.Messages, messages...)
	c.UpdatedAt = time.Now()
	s.appends++
	return nil
}

func (s *fakeChatStore) ListPublishedImages(_ context.Context) ([]model.PublishedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type entry struct {
		img model.PublishedImage
		ts  int64
	}
	var entries []entry
	for _, c := range s.chats {
		for _, m := range c.Messages {
			if m.IsImage && m.IsPublished {
				entries = append(entries, entry{model.PublishedImage{ImageURL: m.Content, UserName: c.UserName}, m.Timestamp})
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts > entries[j].ts })
	out := make([]model.PublishedImage, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.img)
	}
	return out, nil
}

func (s *fakeChatStore) messages(id string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.chats[id].Messages...)
}

type fakeTextGenerator struct {
	reply string
	err   error
	calls int
}

func (g *fakeTextGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	g.calls++
	return g.reply, g.err
}

type fakeImageGenerator struct {
	data  []byte
	err   error
	calls int
}

func (g *fakeImageGenerator) GenerateImage(_ context.Context, _ string) ([]byte, error) {
	g.calls++
	return g.data, g.err
}

type fakeUploader struct {
	url      string
	err      error
	fileName string
	calls    int
}

func (u *fakeUploader) Upload(_ context.Context, _ []byte, fileName string) (string, error) {
	u.calls++
	u.fileName = fileName
	return u.url, u.err
}

type fakeGallery struct {
	mu          sync.Mutex
	images      []model.PublishedImage
	cached      bool
	invalidated int
	sets        int
	getErr      error
}

func (g *fakeGallery) GetPublishedImages(_ context.Context) ([]model.PublishedImage, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, false, g.getErr
	}
	return g.images, g.cached, nil
}

func (g *fakeGallery) SetPublishedImages(_ context.Context, images []model.PublishedImage, _ time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.images, g.cached = images, true
	g.sets++
	return nil
}

func (g *fakeGallery) InvalidatePublishedImages(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.images, g.cached = nil, false
	g.invalidated++
	return nil
}

func (g *fakeGallery) invalidations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.invalidated
}

// fakeTxnStore settles against a fakeUserStore the way the repository does:
// flip is_paid once, grant in the same step.
type fakeTxnStore struct {
	mu     sync.Mutex
	txns   map[string]*model.Transaction
	users  *fakeUserStore
	settle error
}

func newFakeTxnStore(users *fakeUserStore) *fakeTxnStore {
	return &fakeTxnStore{txns: make(map[string]*model.Transaction), users: users}
}

func (s *fakeTxnStore) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *txn
	s.txns[txn.ID] = &cp
	return nil
}

func (s *fakeTxnStore) SettleTransaction(_ context.Context, id string) (*model.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settle != nil {
		return nil, false, s.settle
	}
	t, ok := s.txns[id]
	if !ok {
		return nil, false, repository.ErrTransactionNotFound
	}
	if t.IsPaid {
		return nil, false, nil
	}
	t.IsPaid = true
	s.users.grant(t.UserID, t.Credits)
	cp := *t
	return &cp, true, nil
}

func (s *fakeTxnStore) get(id string) *model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.txns[id]
	return &cp
}

type fakePayments struct {
	mu          sync.Mutex
	requests    []model.CheckoutRequest
	sessions    map[string]*model.CheckoutSession // keyed by payment intent
	createErr   error
	lookupErr   error
	lookupCalls int
}

func newFakePayments() *fakePayments {
	return &fakePayments{sessions: make(map[string]*model.CheckoutSession)}
}

func (p *fakePayments) CreateCheckoutSession(_ context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.requests = append(p.requests, req)
	return &model.CheckoutSession{
		ID:  "cs_" + req.TransactionID,
		URL: "https://checkout.example/" + req.TransactionID,
		Metadata: map[string]string{
			model.MetadataTransactionID: req.TransactionID,
			model.MetadataAppID:         req.AppID,
		},
	}, nil
}

func (p *fakePayments) SessionForPaymentIntent(_ context.Context, id string) (*model.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookupCalls++
	if p.lookupErr != nil {
		return nil, p.lookupErr
	}
	return p.sessions[id], nil
}

func (p *fakePayments) pay(paymentIntentID string, metadata map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[paymentIntentID] = &model.CheckoutSession{ID: "cs_" + paymentIntentID, PaymentIntent: paymentIntentID, Metadata: metadata}
}
