package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BassettUNC/GolfCloud/models"
)

func newActivityPipeline(store *fakeStore, dispatcher *fakeDispatcher) ActivityService {
	return NewActivityService(NewRecipientService(store), NewBadgeService(store), dispatcher)
}

// The end-to-end admin scenario: only the assigned group's token holders
// get a badge increment and a push.
func TestHandleActivityCreatedFromAdmin(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.users = []models.User{
		{ID: "a", UserType: "coach", FCMToken: "t1"},
		{ID: "b", UserType: "player", FCMToken: "t2"},
	}
	dispatcher := &fakeDispatcher{}
	svc := newActivityPipeline(store, dispatcher)

	err := svc.HandleActivityCreated(context.Background(), models.Activity{
		ID:             "act-1",
		Category:       models.CategoryFromAdmin,
		Title:          "Practice moved",
		Description:    "Range practice is now at 4pm",
		AssignedGroups: []string{"coach"},
	})
	if err != nil {
		t.Fatalf("HandleActivityCreated failed: %v", err)
	}

	if got := store.badgeCount("a"); got != 1 {
		t.Errorf("coach badge = %d, want 1", got)
	}
	if got := store.badgeCount("b"); got != 0 {
		t.Errorf("player badge = %d, want 0", got)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("got %d dispatches, want 1", len(dispatcher.sent))
	}
	msg := dispatcher.sent[0]
	if len(msg.Tokens) != 1 || msg.Tokens[0] != "t1" {
		t.Errorf("tokens = %v, want [t1]", msg.Tokens)
	}
	if msg.Title != "Practice moved" || msg.Body != "Range practice is now at 4pm" {
		t.Errorf("payload = %q/%q, want activity title/description", msg.Title, msg.Body)
	}
}

// Leaderboard activities are written by this engine and come back through
// the stream; they must never re-trigger the fan-out.
func TestHandleActivityCreatedLeaderboardGuard(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.users = []models.User{{ID: "a", UserType: "coach", FCMToken: "t1"}}
	dispatcher := &fakeDispatcher{}
	svc := newActivityPipeline(store, dispatcher)

	err := svc.HandleActivityCreated(context.Background(), models.Activity{
		ID:             "act-2",
		Category:       models.CategoryLeaderboard,
		Title:          "Champion Alert 🥇",
		AssignedGroups: []string{},
	})
	if err != nil {
		t.Fatalf("HandleActivityCreated failed: %v", err)
	}

	if len(dispatcher.sent) != 0 {
		t.Error("leaderboard activity must not dispatch")
	}
	if got := store.badgeCount("a"); got != 0 {
		t.Errorf("badge = %d, want 0", got)
	}
}

func TestHandleActivityCreatedEmptyGroups(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.users = []models.User{{ID: "a", UserType: "coach", FCMToken: "t1"}}
	dispatcher := &fakeDispatcher{}
	svc := newActivityPipeline(store, dispatcher)

	err := svc.HandleActivityCreated(context.Background(), models.Activity{
		ID:       "act-3",
		Category: models.CategoryFromAdmin,
	})
	if err != nil {
		t.Fatalf("HandleActivityCreated failed: %v", err)
	}
	if len(dispatcher.sent) != 0 || len(store.incrementBatches) != 0 {
		t.Error("empty assignedGroups must yield no side effects")
	}
}

func TestHandleActivityCreatedLedgerFailureAbortsDispatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.users = []models.User{{ID: "a", UserType: "coach", FCMToken: "t1"}}
	store.failOn["IncrementBadges"] = errors.New("transaction canceled")
	dispatcher := &fakeDispatcher{}
	svc := newActivityPipeline(store, dispatcher)

	err := svc.HandleActivityCreated(context.Background(), models.Activity{
		ID:             "act-4",
		Category:       models.CategoryFromAdmin,
		AssignedGroups: []string{"coach"},
	})
	if err == nil {
		t.Fatal("expected ledger failure to be fatal for the event")
	}
	if len(dispatcher.sent) != 0 {
		t.Error("no push may go out when the badge commit failed")
	}
}

func TestHandleActivityCreatedDispatchFailurePropagates(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.users = []models.User{{ID: "a", UserType: "coach", FCMToken: "t1"}}
	dispatcher := &fakeDispatcher{err: errors.New("unavailable")}
	svc := newActivityPipeline(store, dispatcher)

	err := svc.HandleActivityCreated(context.Background(), models.Activity{
		ID:             "act-5",
		Category:       models.CategoryFromAdmin,
		AssignedGroups: []string{"coach"},
	})
	if err == nil {
		t.Fatal("expected dispatch transport failure to propagate")
	}
}
