package main

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"google.golang.org/api/option"

	"github.com/BassettUNC/GolfCloud/services"
	"github.com/BassettUNC/GolfCloud/storage"
	"github.com/BassettUNC/GolfCloud/stream"
)

// Global variables for client reuse across Lambda invocations
var (
	store        *storage.DynamoStore
	tables       storage.Tables
	activities   services.ActivityService
	leaderboards services.LeaderboardService
	userBadges   services.UserService
)

// handler processes DynamoDB stream events: new activities fan out pushes,
// new performance records may announce a leaderboard leader, and user
// badge changes propagate to the owning device.
func handler(ctx context.Context, event events.DynamoDBEvent) error {
	// Initialize clients on cold start
	if store == nil {
		if err := initClients(ctx); err != nil {
			return fmt.Errorf("failed to initialize clients: %w", err)
		}
	}

	for _, record := range event.Records {
		if err := route(ctx, record); err != nil {
			log.Printf("[LAMBDA_ERROR] failed to process record %s: %v", record.EventID, err)
			return err
		}
	}
	return nil
}

// route dispatches one stream record by source table and event type.
// Tables and event types outside the engine's contract are ignored.
func route(ctx context.Context, record events.DynamoDBEventRecord) error {
	table := stream.TableName(record.EventSourceArn)

	switch {
	case table == tables.Activity && record.EventName == "INSERT":
		return activities.HandleActivityCreated(ctx, stream.DecodeActivity(record.Change.NewImage))
	case table == tables.PerformanceRecords && record.EventName == "INSERT":
		return leaderboards.HandlePerformanceRecordCreated(ctx, stream.DecodePerformanceRecord(record.Change.NewImage))
	case table == tables.Users && record.EventName == "MODIFY":
		before := stream.DecodeUser(record.Change.OldImage)
		after := stream.DecodeUser(record.Change.NewImage)
		return userBadges.HandleUserUpdated(ctx, before, after)
	}
	return nil
}

// initClients wires the storage and delivery collaborators and the
// services on top of them.
func initClients(ctx context.Context) error {
	log.Println("[LAMBDA] Initializing DynamoDB and FCM clients...")

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	tables = tablesFromEnv()
	store = storage.NewDynamoStore(dynamodb.NewFromConfig(cfg), tables)

	messagingClient, err := initMessaging(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize FCM client: %w", err)
	}

	dispatcher := services.NewDispatchService(messagingClient)
	recipients := services.NewRecipientService(store)
	badges := services.NewBadgeService(store)

	activities = services.NewActivityService(recipients, badges, dispatcher)
	leaderboards = services.NewLeaderboardService(store, recipients, badges, dispatcher, nil)
	userBadges = services.NewUserService(store, dispatcher)

	log.Println("[LAMBDA] Clients initialized successfully")
	return nil
}

// initMessaging builds the FCM messaging client. Credentials come from
// Secrets Manager when FCM_CREDENTIALS_SECRET_ARN is set, otherwise the
// application default credentials apply.
func initMessaging(ctx context.Context, cfg aws.Config) (*messaging.Client, error) {
	var opts []option.ClientOption

	secretArn := os.Getenv("FCM_CREDENTIALS_SECRET_ARN")
	if secretArn != "" {
		credentials, err := getFCMCredentials(ctx, cfg, secretArn)
		if err != nil {
			return nil, fmt.Errorf("failed to get FCM credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(credentials))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app.Messaging(ctx)
}

// getFCMCredentials fetches the FCM service account JSON from Secrets Manager
func getFCMCredentials(ctx context.Context, cfg aws.Config, secretArn string) ([]byte, error) {
	client := secretsmanager.NewFromConfig(cfg)
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretArn,
	})
	if err != nil {
		return nil, err
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", secretArn)
	}
	return []byte(*result.SecretString), nil
}

func tablesFromEnv() storage.Tables {
	return storage.Tables{
		Users:              envOrDefault("USERS_TABLE", "users"),
		Activity:           envOrDefault("ACTIVITY_TABLE", "activity"),
		PerformanceRecords: envOrDefault("PERFORMANCE_RECORDS_TABLE", "performanceRecords"),
		Drills:             envOrDefault("DRILLS_TABLE", "drills"),
		ScoreIndex:         envOrDefault("PERFORMANCE_SCORE_INDEX", "did-score-index"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	lambda.Start(handler)
}
