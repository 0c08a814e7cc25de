package dataset

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest dataset name accepted by Validate.
const MaxNameLength = 100

// NameChecker reports whether a dataset name is taken.
type NameChecker interface {
	NameExists(ctx context.Context, name string) (bool, error)
}

// MungeName turns a title into a dataset name: accents folded, lowercase,
// runs of anything outside [a-z0-9_-] collapsed to one dash.
func MungeName(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	name := strings.Trim(b.String(), "-")
	if len(name) > MaxNameLength {
		name = strings.TrimRight(name[:MaxNameLength], "-")
	}
	return name
}

// UniqueName derives a free dataset name from title. Taken names get a
// numeric suffix; after maxAttempts a random suffix is used.
func UniqueName(ctx context.Context, names NameChecker, title string) (string, error) {
	const maxAttempts = 100

	base := MungeName(title)
	if len(base) < 2 {
		base = "dataset"
	}

	candidate := base
	for n := 1; n <= maxAttempts; n++ {
		exists, err := names.NameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = withSuffix(base, fmt.Sprint(n))
	}
	return withSuffix(base, uuid.NewString()[:8]), nil
}

func withSuffix(base, suffix string) string {
	limit := MaxNameLength - len(suffix) - 1
	if len(base) > limit {
		base = strings.TrimRight(base[:limit], "-")
	}
	return base + "-" + suffix
}
