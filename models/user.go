package models

type User struct {
	ID         string `json:"id" dynamodbav:"id"`
	Name       string `json:"name" dynamodbav:"name"`
	UserType   string `json:"userType" dynamodbav:"userType"`
	FCMToken   string `json:"fcm_token" dynamodbav:"fcm_token,omitempty"`
	BadgeCount int    `json:"badgeCount" dynamodbav:"badgeCount"`
}

// HasToken reports whether the user has a registered device to push to.
func (u User) HasToken() bool {
	return u.FCMToken != ""
}
