package notification_test

import (
	"context"
	"sync"

	"go-timeclock/internal/notification"

	"github.com/google/uuid"
)

type memRepo struct {
	mu            sync.Mutex
	notifications []notification.Notification
	pushed        map[uuid.UUID]bool
	tokens        map[uuid.UUID]*notification.PushToken
	createErr     error
}

func newMemRepo() *memRepo {
	return &memRepo{pushed: map[uuid.UUID]bool{}, tokens: map[uuid.UUID]*notification.PushToken{}}
}

func (m *memRepo) addToken(userID uuid.UUID, token string) *notification.PushToken {
	t := &notification.PushToken{ID: uuid.New(), UserID: userID, Token: token, Platform: notification.PlatformIOS, IsActive: true}
	m.tokens[t.ID] = t
	return t
}

func (m *memRepo) CreateNotifications(ctx context.Context, rows []notification.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, rows...)
	return nil
}

func (m *memRepo) MarkPushSent(ctx context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.pushed[id] = true
	}
	return nil
}

func (m *memRepo) ListInbox(ctx context.Context, userID string, limit int) ([]notification.Notification, error) {
	var out []notification.Notification
	for _, n := range m.notifications {
		if n.UserID.String() == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memRepo) RegisterToken(ctx context.Context, t *notification.PushToken) error {
	m.tokens[t.ID] = t
	return nil
}

func (m *memRepo) FindActiveTokens(ctx context.Context, userIDs []uuid.UUID) ([]notification.PushToken, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	var out []notification.PushToken
	for _, t := range m.tokens {
		if t.IsActive && want[t.UserID] {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memRepo) DeactivateToken(ctx context.Context, id uuid.UUID) error {
	m.tokens[id].IsActive = false
	return nil
}

func (m *memRepo) RecordTokenFailure(ctx context.Context, id uuid.UUID) (bool, error) {
	t := m.tokens[id]
	t.FailureCount++
	if t.FailureCount >= notification.MaxTokenFailures {
		t.IsActive = false
	}
	return t.IsActive, nil
}

// fakeTransport answers per token: listed tokens get an error ticket of that kind.
type fakeTransport struct {
	batch     int
	calls     [][]notification.Message
	ticketErr map[string]notification.TransportErrorKind
	chunkErr  error
}

func (f *fakeTransport) BatchSize() int { return f.batch }

func (f *fakeTransport) Send(ctx context.Context, msgs []notification.Message) ([]notification.Ticket, error) {
	f.calls = append(f.calls, msgs)
	if f.chunkErr != nil {
		return nil, f.chunkErr
	}
	tickets := make([]notification.Ticket, len(msgs))
	for i, m := range msgs {
		if kind, ok := f.ticketErr[m.To]; ok {
			tickets[i] = notification.Ticket{Err: &notification.TransportError{Kind: kind, Message: "rejected"}}
			continue
		}
		tickets[i] = notification.Ticket{ID: "ticket-" + m.To}
	}
	return tickets, nil
}
