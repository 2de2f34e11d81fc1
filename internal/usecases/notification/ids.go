package notification

import (
	"strings"

	"github.com/google/uuid"
)

// IDLength is the length of generated notification ids
const IDLength = 10

// NewID generates a random notification id of IDLength lowercase hex digits
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:IDLength]
}
