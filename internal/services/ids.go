package services

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseID validates a hex ObjectID supplied by a client
func parseID(field, value string) (primitive.ObjectID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return primitive.NilObjectID, invalidArgument("%s is required", field)
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, invalidArgument("invalid %s format", field)
	}
	return id, nil
}
