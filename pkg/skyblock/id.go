package skyblock

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NormalizeID parses a player, profile or auction UUID in any of the forms
// accepted by uuid.Parse and returns the undashed lowercase form the API uses.
func NormalizeID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("parse id %q: %w", s, err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
