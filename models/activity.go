package models

// Activity categories recognized by the fan-out pipeline. Any other
// category is stored but never fanned out.
const (
	CategoryFromAdmin   = "fromAdmin"
	CategoryLeaderboard = "leaderboard"
)

type Activity struct {
	ID             string   `json:"id" dynamodbav:"id"`
	Category       string   `json:"category" dynamodbav:"category"`
	Title          string   `json:"title" dynamodbav:"title"`
	Description    string   `json:"description" dynamodbav:"description"`
	Date           string   `json:"date" dynamodbav:"date"` // YYYY-MM-DD
	AssignedGroups []string `json:"assignedGroups" dynamodbav:"assignedGroups"`
	AssignedUsers  []string `json:"assignedUsers" dynamodbav:"assignedUsers"`
}
