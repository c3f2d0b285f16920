package services

import (
	"context"

	"github.com/BassettUNC/GolfCloud/models"
)

// DocumentStore is the storage collaborator the engine speaks to. The
// DynamoDB implementation lives in the storage package; tests use an
// in-memory fake.
type DocumentStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	QueryUsersByType(ctx context.Context, groups []string) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetDrill(ctx context.Context, id string) (*models.Drill, error)
	CountPerformanceRecords(ctx context.Context, did string) (int, error)
	LowestScores(ctx context.Context, did string, limit int) ([]models.PerformanceRecord, error)
	// IncrementBadges adds 1 to badgeCount for every given user as an
	// all-or-nothing batch.
	IncrementBadges(ctx context.Context, userIDs []string) error
	CreateActivity(ctx context.Context, activity *models.Activity) (string, error)
}
