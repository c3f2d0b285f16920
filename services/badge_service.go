package services

import (
	"context"
	"fmt"

	"github.com/BassettUNC/GolfCloud/models"
)

// BadgeService is the unread-counter ledger. Increments go through the
// store's atomic batch so concurrent events on the same user compose;
// the engine never decrements a counter (the app resets it on read).
type BadgeService interface {
	// Increment adds 1 to badgeCount for every recipient with a token,
	// committing as a single all-or-nothing batch.
	Increment(ctx context.Context, recipients []models.User) error
	// CurrentBadge re-reads the counter after a commit. Payloads use
	// this rather than values computed client-side, which can go stale
	// when events interleave on the same user.
	CurrentBadge(ctx context.Context, userID string) (int, error)
}

type badgeService struct {
	store DocumentStore
}

func NewBadgeService(store DocumentStore) BadgeService {
	return &badgeService{
		store: store,
	}
}

func (s *badgeService) Increment(ctx context.Context, recipients []models.User) error {
	ids := make([]string, 0, len(recipients))
	for _, u := range recipients {
		if u.HasToken() {
			ids = append(ids, u.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.store.IncrementBadges(ctx, ids); err != nil {
		return fmt.Errorf("failed to increment badges for %d users: %w", len(ids), err)
	}
	return nil
}

func (s *badgeService) CurrentBadge(ctx context.Context, userID string) (int, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read badge count for user %s: %w", userID, err)
	}
	return user.BadgeCount, nil
}
