package services

import (
	"context"
	"fmt"
	"log"

	"github.com/BassettUNC/GolfCloud/models"
)

// RecipientService computes the set of users a notification goes to.
// Users without a device token are dropped here: no token means no
// delivery and no badge bookkeeping.
type RecipientService interface {
	// ResolveForActivity returns the recipients of an admin activity:
	// users whose userType is among the activity's assigned groups. An
	// empty group list resolves to nobody, not to everybody.
	ResolveForActivity(ctx context.Context, activity models.Activity) ([]models.User, error)
	// ResolveAll returns every user with a token. Broadcast mode, used
	// only by the leaderboard path.
	ResolveAll(ctx context.Context) ([]models.User, error)
}

type recipientService struct {
	store DocumentStore
}

func NewRecipientService(store DocumentStore) RecipientService {
	return &recipientService{
		store: store,
	}
}

func (s *recipientService) ResolveForActivity(ctx context.Context, activity models.Activity) ([]models.User, error) {
	if activity.Category != models.CategoryFromAdmin {
		return nil, nil
	}
	if len(activity.AssignedGroups) == 0 {
		log.Printf("[FANOUT] activity %s has no assigned groups, nobody to notify", activity.ID)
		return nil, nil
	}

	users, err := s.store.QueryUsersByType(ctx, activity.AssignedGroups)
	if err != nil {
		return nil, fmt.Errorf("failed to query users for groups %v: %w", activity.AssignedGroups, err)
	}
	return withTokens(users), nil
}

func (s *recipientService) ResolveAll(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return withTokens(users), nil
}

func withTokens(users []models.User) []models.User {
	recipients := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.HasToken() {
			recipients = append(recipients, u)
		}
	}
	return recipients
}
