package services

import (
	"context"
	"fmt"
	"log"

	"github.com/BassettUNC/GolfCloud/models"
)

// ActivityService fans out a push when an admin posts a new activity.
type ActivityService interface {
	HandleActivityCreated(ctx context.Context, activity models.Activity) error
}

type activityService struct {
	recipients RecipientService
	badges     BadgeService
	dispatcher DispatchService
}

func NewActivityService(recipients RecipientService, badges BadgeService, dispatcher DispatchService) ActivityService {
	return &activityService{
		recipients: recipients,
		badges:     badges,
		dispatcher: dispatcher,
	}
}

func (s *activityService) HandleActivityCreated(ctx context.Context, activity models.Activity) error {
	// Only admin posts fan out. This also breaks the feedback loop:
	// leaderboard activities are written by this engine and re-enter
	// the stream.
	if activity.Category != models.CategoryFromAdmin {
		log.Printf("[FANOUT] activity %s has category %q, skipping", activity.ID, activity.Category)
		return nil
	}

	recipients, err := s.recipients.ResolveForActivity(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients for activity %s: %w", activity.ID, err)
	}
	if len(recipients) == 0 {
		log.Printf("[FANOUT] activity %s resolved to zero recipients", activity.ID)
		return nil
	}

	if err := s.badges.Increment(ctx, recipients); err != nil {
		return fmt.Errorf("failed to increment badges for activity %s: %w", activity.ID, err)
	}

	tokens := make([]string, 0, len(recipients))
	for _, u := range recipients {
		tokens = append(tokens, u.FCMToken)
	}

	report, err := s.dispatcher.Send(ctx, &models.NotificationMessage{
		Title:  activity.Title,
		Body:   activity.Description,
		Tokens: tokens,
	})
	if err != nil {
		return fmt.Errorf("failed to dispatch activity %s: %w", activity.ID, err)
	}

	log.Printf("[FANOUT] activity %s delivered to %d/%d recipients", activity.ID, report.SuccessCount, len(tokens))
	return nil
}
