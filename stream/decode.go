// Package stream decodes DynamoDB stream images into model structs.
package stream

import (
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/BassettUNC/GolfCloud/models"
)

// Image is a document snapshot as delivered by the change stream.
type Image = map[string]events.DynamoDBAttributeValue

// TableName extracts the table name from a stream record's event source ARN,
// e.g. arn:aws:dynamodb:us-east-1:123456789012:table/users/stream/2024-01-01T00:00:00.000
func TableName(eventSourceARN string) string {
	parts := strings.Split(eventSourceARN, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// DecodeUser converts a users-table image. Absent fields decode to zero
// values: a missing fcm_token means no registered device, a missing
// badgeCount reads as 0.
func DecodeUser(img Image) models.User {
	return models.User{
		ID:         stringAttr(img, "id"),
		Name:       stringAttr(img, "name"),
		UserType:   stringAttr(img, "userType"),
		FCMToken:   stringAttr(img, "fcm_token"),
		BadgeCount: intAttr(img, "badgeCount"),
	}
}

// DecodeActivity converts an activity-table image.
func DecodeActivity(img Image) models.Activity {
	return models.Activity{
		ID:             stringAttr(img, "id"),
		Category:       stringAttr(img, "category"),
		Title:          stringAttr(img, "title"),
		Description:    stringAttr(img, "description"),
		Date:           stringAttr(img, "date"),
		AssignedGroups: stringListAttr(img, "assignedGroups"),
		AssignedUsers:  stringListAttr(img, "assignedUsers"),
	}
}

// DecodePerformanceRecord converts a performanceRecords-table image.
func DecodePerformanceRecord(img Image) models.PerformanceRecord {
	return models.PerformanceRecord{
		ID:    stringAttr(img, "id"),
		DID:   stringAttr(img, "did"),
		UID:   stringAttr(img, "uid"),
		Score: floatAttr(img, "score"),
	}
}

func stringAttr(img Image, key string) string {
	av, ok := img[key]
	if !ok || av.DataType() != events.DataTypeString {
		return ""
	}
	return av.String()
}

func intAttr(img Image, key string) int {
	av, ok := img[key]
	if !ok || av.DataType() != events.DataTypeNumber {
		return 0
	}
	n, err := av.Integer()
	if err != nil {
		return 0
	}
	return int(n)
}

func floatAttr(img Image, key string) float64 {
	av, ok := img[key]
	if !ok || av.DataType() != events.DataTypeNumber {
		return 0
	}
	f, err := av.Float()
	if err != nil {
		return 0
	}
	return f
}

func stringListAttr(img Image, key string) []string {
	av, ok := img[key]
	if !ok {
		return nil
	}
	switch av.DataType() {
	case events.DataTypeList:
		var out []string
		for _, item := range av.List() {
			if item.DataType() == events.DataTypeString {
				out = append(out, item.String())
			}
		}
		return out
	case events.DataTypeStringSet:
		return av.StringSet()
	default:
		return nil
	}
}
