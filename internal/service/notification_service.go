package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cleanbag-service/internal/model"
	"cleanbag-service/internal/push"
)

// NotificationService persists in-app notifications and mirrors them to the
// push gateway when one is configured.
type NotificationService struct {
	store NotificationStore
	push  *push.Client
	log   zerolog.Logger
}

func NewNotificationService(store NotificationStore, push *push.Client, log zerolog.Logger) *NotificationService {
	return &NotificationService{store: store, push: push, log: log}
}

func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, in NotificationInput) error {
	data := "{}"
	if len(in.Data) > 0 {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return err
		}
		data = string(raw)
	}

	n := &model.Notification{
		UserID:  userID,
		Title:   in.Title,
		Message: in.Message,
		Type:    in.Type,
		Data:    data,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return err
	}

	// Push delivery is best effort: the stored row is the source of truth.
	if err := s.push.Send(ctx, userID, in.Title, in.Message, string(in.Type)); err != nil {
		s.log.Warn().Err(err).
			Str("user_id", userID.String()).
			Msg("push delivery failed")
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal, limit, offset int) ([]model.Notification, error) {
	return s.store.ListByUser(ctx, principal.UserID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	ok, err := s.store.MarkRead(ctx, id, principal.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
