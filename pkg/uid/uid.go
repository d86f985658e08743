package uid

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a new run identifier.
func New() string {
	return uuid.New().String()
}

// Compact returns a dash-free identifier, used for synthesized request ids.
func Compact() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
