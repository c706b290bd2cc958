package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"satbridge/internal/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) MaxMessageID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) MessagesAfter(ctx context.Context, cursor int64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *mockStore) RecentMessages(ctx context.Context, n int) ([]models.Message, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *mockStore) ThreadAddress(ctx context.Context, threadID int64) (string, error) {
	args := m.Called(ctx, threadID)
	return args.String(0), args.Error(1)
}

func (m *mockStore) AttachmentFile(ctx context.Context, attachmentID string) (models.AttachmentFile, error) {
	args := m.Called(ctx, attachmentID)
	return args.Get(0).(models.AttachmentFile), args.Error(1)
}

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) Get(msisdn string) (map[string]models.Subscription, error) {
	args := m.Called(msisdn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.Subscription), args.Error(1)
}

func (m *mockRegistry) ActiveTargets(msisdn string) ([]models.Subscription, error) {
	args := m.Called(msisdn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *mockRegistry) Upsert(msisdn, name string, status models.SubscriptionStatus, code, url, token string) (bool, error) {
	args := m.Called(msisdn, name, status, code, url, token)
	return args.Bool(0), args.Error(1)
}

func (m *mockRegistry) Activate(msisdn, name, code string) (bool, error) {
	args := m.Called(msisdn, name, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockRegistry) Deactivate(msisdn, name string) error {
	args := m.Called(msisdn, name)
	return args.Error(0)
}

func (m *mockRegistry) DeactivateAll(msisdn string) error {
	args := m.Called(msisdn)
	return args.Error(0)
}

type mockWebhookClient struct {
	mock.Mock
}

func (m *mockWebhookClient) Post(ctx context.Context, url string, payload interface{}, bearerToken, idempotencyKey string) (int, error) {
	args := m.Called(ctx, url, payload, bearerToken, idempotencyKey)
	return args.Int(0), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, recipients []string, subject, body string, attachments []string, headers map[string]string) error {
	args := m.Called(ctx, recipients, subject, body, attachments, headers)
	return args.Error(0)
}

type mockForwarder struct {
	mock.Mock
}

func (m *mockForwarder) ForwardMedia(ctx context.Context, msg models.Message, msisdn, attachmentID, path string) (bool, error) {
	args := m.Called(ctx, msg, msisdn, attachmentID, path)
	return args.Bool(0), args.Error(1)
}

// fakeLedger is an in-memory SeenLedger for tailer tests.
type fakeLedger struct {
	mu   sync.Mutex
	seen map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: make(map[string]int)}
}

func (f *fakeLedger) Seen(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[key] > 0
}

func (f *fakeLedger) MarkSeen(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[key]++
}

func (f *fakeLedger) marks(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[key]
}

// fakeResolver maps candidate ids to paths.
type fakeResolver struct {
	paths map[string]string
}

func (f *fakeResolver) Resolve(fileID, attachmentID string) string {
	if p, ok := f.paths[fileID]; ok && fileID != "" {
		return p
	}
	if p, ok := f.paths[attachmentID]; ok && attachmentID != "" {
		return p
	}
	return ""
}
