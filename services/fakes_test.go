package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"firebase.google.com/go/v4/messaging"

	"github.com/BassettUNC/GolfCloud/models"
)

var errNotFound = errors.New("document not found")

// fakeStore is an in-memory DocumentStore. Users are kept in a slice so
// iteration order is deterministic across test runs.
type fakeStore struct {
	users      []models.User
	drills     map[string]models.Drill
	records    []models.PerformanceRecord
	activities []models.Activity

	// incrementBatches records every IncrementBadges call.
	incrementBatches [][]string
	// failOn maps a method name to an error that method should return.
	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drills: make(map[string]models.Drill),
		failOn: make(map[string]error),
	}
}

func (f *fakeStore) ListUsers(_ context.Context) ([]models.User, error) {
	if err := f.failOn["ListUsers"]; err != nil {
		return nil, err
	}
	return append([]models.User(nil), f.users...), nil
}

func (f *fakeStore) QueryUsersByType(_ context.Context, groups []string) ([]models.User, error) {
	if err := f.failOn["QueryUsersByType"]; err != nil {
		return nil, err
	}
	member := make(map[string]bool, len(groups))
	for _, g := range groups {
		member[g] = true
	}
	var out []models.User
	for _, u := range f.users {
		if member[u.UserType] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	if err := f.failOn["GetUser"]; err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeStore) GetDrill(_ context.Context, id string) (*models.Drill, error) {
	if err := f.failOn["GetDrill"]; err != nil {
		return nil, err
	}
	drill, ok := f.drills[id]
	if !ok {
		return nil, errNotFound
	}
	return &drill, nil
}

func (f *fakeStore) CountPerformanceRecords(_ context.Context, did string) (int, error) {
	if err := f.failOn["CountPerformanceRecords"]; err != nil {
		return 0, err
	}
	count := 0
	for _, r := range f.records {
		if r.DID == did {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) LowestScores(_ context.Context, did string, limit int) ([]models.PerformanceRecord, error) {
	if err := f.failOn["LowestScores"]; err != nil {
		return nil, err
	}
	var matched []models.PerformanceRecord
	for _, r := range f.records {
		if r.DID == did {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Score < matched[j].Score })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeStore) IncrementBadges(_ context.Context, userIDs []string) error {
	if err := f.failOn["IncrementBadges"]; err != nil {
		return err
	}
	f.incrementBatches = append(f.incrementBatches, append([]string(nil), userIDs...))
	for _, id := range userIDs {
		for i := range f.users {
			if f.users[i].ID == id {
				f.users[i].BadgeCount++
			}
		}
	}
	return nil
}

func (f *fakeStore) CreateActivity(_ context.Context, activity *models.Activity) (string, error) {
	if err := f.failOn["CreateActivity"]; err != nil {
		return "", err
	}
	if activity.ID == "" {
		activity.ID = fmt.Sprintf("activity-%d", len(f.activities)+1)
	}
	f.activities = append(f.activities, *activity)
	return activity.ID, nil
}

func (f *fakeStore) badgeCount(id string) int {
	for _, u := range f.users {
		if u.ID == id {
			return u.BadgeCount
		}
	}
	return -1
}

// fakeDispatcher records Send calls for pipeline tests.
type fakeDispatcher struct {
	sent []*models.NotificationMessage
	err  error
}

func (f *fakeDispatcher) Send(_ context.Context, msg *models.NotificationMessage) (*models.SendReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	return &models.SendReport{SuccessCount: len(msg.Tokens)}, nil
}

// fakeSender stands in for the FCM client under the dispatcher.
type fakeSender struct {
	calls     []*messaging.MulticastMessage
	badTokens map[string]bool
	err       error
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, msg)

	resp := &messaging.BatchResponse{}
	for _, token := range msg.Tokens {
		if f.badTokens[token] {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{
				Success: false,
				Error:   errors.New("invalid registration token"),
			})
			continue
		}
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{
			Success:   true,
			MessageID: "projects/golfcloud/messages/" + token,
		})
	}
	return resp, nil
}
