package models

// NotificationMessage is an ephemeral multicast push request. It is never
// persisted.
type NotificationMessage struct {
	Title  string
	Body   string
	Tokens []string
	// Badge, when set, is attached to the APNS payload so the app icon
	// counter updates with the push.
	Badge *int
	// BadgeOnly sends a silent badge update with no alert content.
	BadgeOnly bool
}

// TokenResult is the delivery outcome for a single device token.
type TokenResult struct {
	Token     string
	MessageID string
	Err       error
}

// SendReport aggregates per-token outcomes of one multicast dispatch.
type SendReport struct {
	SuccessCount int
	FailureCount int
	Results      []TokenResult
}
