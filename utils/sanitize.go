package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var labelPolicy = bluemonday.StrictPolicy()

// SanitizeLabel strips all markup from short client-supplied labels such as
// mood reactions and collectible ids.
func SanitizeLabel(input string) string {
	return strings.TrimSpace(labelPolicy.Sanitize(input))
}
