package services

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"

	"github.com/BassettUNC/GolfCloud/models"
)

// multicastLimit is the FCM cap on tokens per multicast call. Larger
// recipient sets are chunked transparently.
const multicastLimit = 500

// Fallbacks for malformed activities. A missing title or body must not
// block delivery to everyone else.
const (
	defaultTitle = "Error"
	defaultBody  = "ERROR: Something seems broken :("
)

// multicastSender is the slice of the FCM client the dispatcher needs.
// *messaging.Client satisfies it.
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// DispatchService sends multicast pushes and accounts for per-token
// outcomes. A failed token never aborts delivery to the rest; retries,
// if any, are FCM's business.
type DispatchService interface {
	Send(ctx context.Context, msg *models.NotificationMessage) (*models.SendReport, error)
}

type dispatchService struct {
	client multicastSender
}

func NewDispatchService(client multicastSender) DispatchService {
	return &dispatchService{
		client: client,
	}
}

func (s *dispatchService) Send(ctx context.Context, msg *models.NotificationMessage) (*models.SendReport, error) {
	report := &models.SendReport{}
	if len(msg.Tokens) == 0 {
		log.Printf("[DISPATCH] no tokens, nothing to send")
		return report, nil
	}

	for start := 0; start < len(msg.Tokens); start += multicastLimit {
		end := start + multicastLimit
		if end > len(msg.Tokens) {
			end = len(msg.Tokens)
		}
		chunk := msg.Tokens[start:end]

		resp, err := s.client.SendEachForMulticast(ctx, buildMulticast(msg, chunk))
		if err != nil {
			return report, fmt.Errorf("failed to send multicast: %w", err)
		}

		report.SuccessCount += resp.SuccessCount
		report.FailureCount += resp.FailureCount
		for i, r := range resp.Responses {
			result := models.TokenResult{
				Token:     chunk[i],
				MessageID: r.MessageID,
				Err:       r.Error,
			}
			if !r.Success {
				log.Printf("[DISPATCH_ERROR] failed to send to token %s: %v", result.Token, result.Err)
			}
			report.Results = append(report.Results, result)
		}
	}

	log.Printf("[DISPATCH] sent to %d tokens, %d failed", report.SuccessCount, report.FailureCount)
	return report, nil
}

// buildMulticast assembles one FCM message for a token chunk. Badge-only
// messages carry just the APNS badge number so the device updates its
// icon silently; everything else is an alert push with the default sound.
func buildMulticast(msg *models.NotificationMessage, tokens []string) *messaging.MulticastMessage {
	if msg.BadgeOnly {
		return &messaging.MulticastMessage{
			Tokens: tokens,
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Badge: msg.Badge,
					},
				},
			},
		}
	}

	title := msg.Title
	if title == "" {
		title = defaultTitle
	}
	body := msg.Body
	if body == "" {
		body = defaultBody
	}

	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: msg.Badge,
				},
			},
		},
	}
}
