package models

// PerformanceRecord is one scored attempt at a drill. Scores are timed,
// so lower is better.
type PerformanceRecord struct {
	ID    string  `json:"id" dynamodbav:"id"`
	DID   string  `json:"did" dynamodbav:"did"`
	UID   string  `json:"uid" dynamodbav:"uid"`
	Score float64 `json:"score" dynamodbav:"score"`
}
