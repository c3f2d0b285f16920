package services

import (
	"context"
	"log"

	"github.com/BassettUNC/GolfCloud/models"
)

// UserService propagates badge counter changes to the owning device as a
// silent badge-only push. Best effort all the way down: a missing token
// or a failed send is logged, never surfaced as an event failure.
type UserService interface {
	HandleUserUpdated(ctx context.Context, before, after models.User) error
}

type userService struct {
	store      DocumentStore
	dispatcher DispatchService
}

func NewUserService(store DocumentStore, dispatcher DispatchService) UserService {
	return &userService{
		store:      store,
		dispatcher: dispatcher,
	}
}

func (s *userService) HandleUserUpdated(ctx context.Context, before, after models.User) error {
	if before.BadgeCount == after.BadgeCount {
		return nil
	}

	// Re-read the token rather than trusting the stream image; the
	// device may have refreshed it since.
	user, err := s.store.GetUser(ctx, after.ID)
	if err != nil {
		log.Printf("[BADGE_ERROR] failed to fetch device token for user %s: %v", after.ID, err)
		return nil
	}
	if !user.HasToken() {
		log.Printf("[BADGE] user %s has no token, skipping badge push", after.ID)
		return nil
	}

	badge := after.BadgeCount
	if _, err := s.dispatcher.Send(ctx, &models.NotificationMessage{
		Tokens:    []string{user.FCMToken},
		Badge:     &badge,
		BadgeOnly: true,
	}); err != nil {
		log.Printf("[BADGE_ERROR] failed to push badge %d to user %s: %v", badge, after.ID, err)
		return nil
	}

	log.Printf("[BADGE] pushed badge %d to user %s", badge, after.ID)
	return nil
}
