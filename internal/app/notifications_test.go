package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/store"
)

type notificationRepoStub struct {
	store.Repository

	updated bool
}

func (s *notificationRepoStub) MarkNotificationRead(ctx context.Context, affiliateID, notificationID uuid.UUID) (bool, error) {
	return s.updated, nil
}

func TestMarkNotificationRead(t *testing.T) {
	service := NewService(&notificationRepoStub{updated: true}, nil, "shoplane.events", "salt")
	if err := service.MarkNotificationRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service = NewService(&notificationRepoStub{updated: false}, nil, "shoplane.events", "salt")
	err := service.MarkNotificationRead(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, store.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for a foreign notification, got %v", err)
	}
}
