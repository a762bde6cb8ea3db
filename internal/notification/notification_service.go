package notification

import (
	"context"
	"errors"
	"time"

	notificationerrors "go-timeclock/internal/notification/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Service interface {
	Send(ctx context.Context, reqs []Request) (Result, error)
	RegisterToken(ctx context.Context, userID string, req RegisterTokenRequest) (PushTokenResponse, error)
	ListInbox(ctx context.Context, userID string, limit int) ([]NotificationResponse, error)
}

type service struct {
	repo      Repository
	transport Transport
	limiter   *rate.Limiter
	logger    *zap.Logger
	now       func() time.Time
}

// NewService paces transport chunks at chunksPerSecond; zero disables pacing.
func NewService(repo Repository, transport Transport, chunksPerSecond float64, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	limit := rate.Inf
	if chunksPerSecond > 0 {
		limit = rate.Limit(chunksPerSecond)
	}
	return &service{
		repo:      repo,
		transport: transport,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    l,
		now:       time.Now,
	}
}

type outgoing struct {
	request int
	token   PushToken
	msg     Message
}

// Send writes one inbox row per request and pushes to every active device of the
// recipient. Transport failures never surface as errors; they are absorbed into
// token accounting. An error means the inbox rows could not be written.
func (s *service) Send(ctx context.Context, reqs []Request) (Result, error) {
	res := Result{Delivered: make([]bool, len(reqs))}
	if len(reqs) == 0 {
		return res, nil
	}

	createdAt := s.now().UTC()
	rows := make([]Notification, len(reqs))
	for i, r := range reqs {
		rows[i] = Notification{
			ID:             uuid.New(),
			UserID:         r.UserID,
			OrganizationID: r.OrganizationID,
			Type:           r.Type,
			Title:          r.Title,
			Body:           r.Body,
			Data:           r.Data,
			CreatedAt:      createdAt,
		}
	}
	if err := s.repo.CreateNotifications(ctx, rows); err != nil {
		s.logger.Error("create inbox rows failed", zap.Int("count", len(rows)), zap.Error(err))
		return res, err
	}
	res.Notifications = len(rows)

	userIDs := uniqueUsers(reqs)
	tokens, err := s.repo.FindActiveTokens(ctx, userIDs)
	if err != nil {
		s.logger.Warn("push token lookup failed; inbox only", zap.Error(err))
		return res, nil
	}
	byUser := map[uuid.UUID][]PushToken{}
	for _, t := range tokens {
		byUser[t.UserID] = append(byUser[t.UserID], t)
	}

	var queue []outgoing
	for i, r := range reqs {
		for _, t := range byUser[r.UserID] {
			queue = append(queue, outgoing{
				request: i,
				token:   t,
				msg:     Message{To: t.Token, Title: r.Title, Body: r.Body, Data: r.Data},
			})
		}
	}
	res.Tokens = len(queue)

	size := s.transport.BatchSize()
	if size <= 0 {
		size = expoMaxBatch
	}
	for start := 0; start < len(queue); start += size {
		end := start + size
		if end > len(queue) {
			end = len(queue)
		}
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn("push pacing interrupted", zap.Error(err))
			break
		}
		s.sendChunk(ctx, queue[start:end], &res)
	}

	var pushed []uuid.UUID
	for i, ok := range res.Delivered {
		if ok {
			pushed = append(pushed, rows[i].ID)
		}
	}
	if err := s.repo.MarkPushSent(ctx, pushed); err != nil {
		s.logger.Warn("stamp push_sent failed", zap.Int("count", len(pushed)), zap.Error(err))
	}

	s.logger.Debug("notification batch delivered",
		zap.Int("notifications", res.Notifications),
		zap.Int("tokens", res.Tokens),
		zap.Int("accepted", res.Accepted),
		zap.Int("failed", res.Failed),
		zap.Int("deactivated", res.Deactivated),
	)
	return res, nil
}

func (s *service) sendChunk(ctx context.Context, chunk []outgoing, res *Result) {
	msgs := make([]Message, len(chunk))
	for i, o := range chunk {
		msgs[i] = o.msg
	}

	tickets, err := s.transport.Send(ctx, msgs)
	if err != nil {
		s.logger.Warn("push chunk failed", zap.Int("size", len(chunk)), zap.Error(err))
		for _, o := range chunk {
			s.failToken(ctx, o.token, transientOf(err), res)
		}
		return
	}

	for i, o := range chunk {
		if i >= len(tickets) {
			s.failToken(ctx, o.token, &TransportError{Kind: KindTransient, Message: "missing ticket"}, res)
			continue
		}
		if tickets[i].Err == nil {
			res.Accepted++
			res.Delivered[o.request] = true
			continue
		}
		s.failToken(ctx, o.token, tickets[i].Err, res)
	}
}

func (s *service) failToken(ctx context.Context, token PushToken, terr *TransportError, res *Result) {
	res.Failed++
	if terr.Kind == KindUnregistered {
		if err := s.repo.DeactivateToken(ctx, token.ID); err != nil {
			s.logger.Error("deactivate push token failed", zap.String("token_id", token.ID.String()), zap.Error(err))
			return
		}
		res.Deactivated++
		s.logger.Info("push token deactivated", zap.String("token_id", token.ID.String()), zap.String("reason", "device_not_registered"))
		return
	}

	active, err := s.repo.RecordTokenFailure(ctx, token.ID)
	if err != nil {
		s.logger.Error("record push token failure failed", zap.String("token_id", token.ID.String()), zap.Error(err))
		return
	}
	if !active {
		res.Deactivated++
		s.logger.Info("push token deactivated", zap.String("token_id", token.ID.String()), zap.String("reason", "failure_limit"))
	}
}

func transientOf(err error) *TransportError {
	var terr *TransportError
	if errors.As(err, &terr) {
		return &TransportError{Kind: KindTransient, Message: terr.Message}
	}
	return &TransportError{Kind: KindTransient, Message: err.Error()}
}

func uniqueUsers(reqs []Request) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(reqs))
	out := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			out = append(out, r.UserID)
		}
	}
	return out
}

func (s *service) RegisterToken(ctx context.Context, userID string, req RegisterTokenRequest) (PushTokenResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return PushTokenResponse{}, notificationerrors.ErrInvalidUser
	}
	t := &PushToken{
		ID:       uuid.New(),
		UserID:   uid,
		Token:    req.Token,
		Platform: Platform(req.Platform),
		IsActive: true,
	}
	if err := s.repo.RegisterToken(ctx, t); err != nil {
		s.logger.Error("register push token failed", zap.String("user_id", userID), zap.Error(err))
		return PushTokenResponse{}, err
	}
	s.logger.Info("register push token success", zap.String("user_id", userID), zap.String("platform", req.Platform))
	return PushTokenResponse{Token: t.Token, Platform: string(t.Platform), IsActive: true}, nil
}

func (s *service) ListInbox(ctx context.Context, userID string, limit int) ([]NotificationResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.repo.ListInbox(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationResponse, len(rows))
	for i, n := range rows {
		out[i] = NotificationResponse{
			ID:        n.ID.String(),
			Type:      string(n.Type),
			Title:     n.Title,
			Body:      n.Body,
			Data:      n.Data,
			PushSent:  n.PushSent,
			Read:      n.ReadAt != nil,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}
