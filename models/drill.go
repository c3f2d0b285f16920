package models

// Drill is read-only reference data for notification copy.
type Drill struct {
	ID   string `json:"id" dynamodbav:"id"`
	Name string `json:"name" dynamodbav:"name"`
}
