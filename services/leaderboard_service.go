package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/BassettUNC/GolfCloud/models"
)

// minFieldSize is how many records a drill needs, counting the new one,
// before a new best is worth celebrating.
const minFieldSize = 4

var celebrationTitles = []string{
	"New First Place Achieved! 🏆 ",
	"Champion Alert 🥇",
	"Top Spot Taken 🎉",
	"Leading the Pack 🚀",
	"Gold Standard Reached 🏅",
	"Rising to the Top ⭐️",
	"Breaking Records 💥",
	"Shining Bright 🌟",
	"Surging Ahead 🥇",
	"First Place Update 🔥",
}

// LeaderboardService decides whether a newly recorded score is a genuine
// new drill leader and, if so, tells everyone about it.
type LeaderboardService interface {
	HandlePerformanceRecordCreated(ctx context.Context, record models.PerformanceRecord) error
}

type leaderboardService struct {
	store      DocumentStore
	recipients RecipientService
	badges     BadgeService
	dispatcher DispatchService
	// pick selects a celebration title index; injectable so tests are
	// deterministic.
	pick func(n int) int
	now  func() time.Time
}

// NewLeaderboardService builds the detector. A nil pick falls back to
// rand.Intn.
func NewLeaderboardService(store DocumentStore, recipients RecipientService, badges BadgeService, dispatcher DispatchService, pick func(n int) int) LeaderboardService {
	if pick == nil {
		pick = rand.Intn
	}
	return &leaderboardService{
		store:      store,
		recipients: recipients,
		badges:     badges,
		dispatcher: dispatcher,
		pick:       pick,
		now:        time.Now,
	}
}

func (s *leaderboardService) HandlePerformanceRecordCreated(ctx context.Context, record models.PerformanceRecord) error {
	isLeader, err := s.detectNewLeader(ctx, record)
	if err != nil {
		return err
	}
	if !isLeader {
		return nil
	}

	log.Printf("[LEADERBOARD] new leader on drill %s: user %s with score %g", record.DID, record.UID, record.Score)
	return s.celebrate(ctx, record)
}

// detectNewLeader applies the lowest-two rule: the record leads iff its
// score is <= the lowest recorded score and strictly below the second
// lowest. Scores are timed, lower is better. The window is read after the
// record is stored, so it can include the record itself; requiring the
// second-lowest to be strictly higher keeps a tie with the current best
// from re-triggering. Two near-simultaneous leaders can both pass this
// check; that race is accepted, not serialized.
func (s *leaderboardService) detectNewLeader(ctx context.Context, record models.PerformanceRecord) (bool, error) {
	count, err := s.store.CountPerformanceRecords(ctx, record.DID)
	if err != nil {
		return false, fmt.Errorf("failed to count records for drill %s: %w", record.DID, err)
	}
	if count < minFieldSize {
		return false, nil
	}

	lowest, err := s.store.LowestScores(ctx, record.DID, 2)
	if err != nil {
		return false, fmt.Errorf("failed to fetch lowest scores for drill %s: %w", record.DID, err)
	}
	if len(lowest) < 2 {
		return false, nil
	}

	return record.Score <= lowest[0].Score && lowest[1].Score > record.Score, nil
}

// celebrate pushes the announcement to every user and writes the audit
// activity. The activity is only written once the dispatch has been
// confirmed attempted.
func (s *leaderboardService) celebrate(ctx context.Context, record models.PerformanceRecord) error {
	user, err := s.store.GetUser(ctx, record.UID)
	if err != nil {
		return fmt.Errorf("failed to resolve scoring user %s: %w", record.UID, err)
	}
	drill, err := s.store.GetDrill(ctx, record.DID)
	if err != nil {
		return fmt.Errorf("failed to resolve drill %s: %w", record.DID, err)
	}

	recipients, err := s.recipients.ResolveAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		log.Printf("[LEADERBOARD] no tokens found to send notification")
		return nil
	}

	if err := s.badges.Increment(ctx, recipients); err != nil {
		return fmt.Errorf("failed to increment badges: %w", err)
	}

	// The multicast carries one shared badge number, re-read from the
	// first recipient after the commit. Other recipients' counters may
	// differ; per-token customization would fix that at the cost of one
	// send per token.
	badge, err := s.badges.CurrentBadge(ctx, recipients[0].ID)
	if err != nil {
		return fmt.Errorf("failed to read representative badge: %w", err)
	}

	tokens := make([]string, 0, len(recipients))
	for _, u := range recipients {
		tokens = append(tokens, u.FCMToken)
	}

	title := celebrationTitles[s.pick(len(celebrationTitles))]
	body := fmt.Sprintf("%s has the new highest score on %s", user.Name, drill.Name)

	if _, err := s.dispatcher.Send(ctx, &models.NotificationMessage{
		Title:  title,
		Body:   body,
		Tokens: tokens,
		Badge:  &badge,
	}); err != nil {
		return fmt.Errorf("failed to dispatch leaderboard notification: %w", err)
	}

	activityID, err := s.store.CreateActivity(ctx, &models.Activity{
		Category:       models.CategoryLeaderboard,
		Title:          title,
		Description:    body,
		Date:           activityDate(s.now()),
		AssignedGroups: []string{},
		AssignedUsers:  []string{},
	})
	if err != nil {
		return fmt.Errorf("failed to create leaderboard activity: %w", err)
	}

	log.Printf("[LEADERBOARD] created activity %s for drill %s", activityID, record.DID)
	return nil
}

// activityDate formats the civil date in a fixed UTC-5 offset, no DST.
func activityDate(t time.Time) string {
	return t.UTC().Add(-5 * time.Hour).Format("2006-01-02")
}
