// Package shortcode assigns the short code for a new link.
package shortcode

import (
	"fmt"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vadimbarashkov/linkly/internal/entity"
)

// AliasPrefix is the shareable-link prefix users tend to paste along with
// their alias. It is stripped before the alias is validated.
const AliasPrefix = "brev.ly/"

const (
	minCodeLength    = 3
	maxCodeLength    = 50
	randomCodeLength = 6
)

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Resolve picks the short code for a new link. A user alias wins over an
// explicit short code, which wins over a randomly generated one. Uniqueness
// is not checked here: the storage layer's unique constraint is the
// authority and callers interpret its conflict signal.
func Resolve(alias, code string) (string, error) {
	if alias != "" {
		if cleaned := strings.TrimPrefix(alias, AliasPrefix); cleaned != "" {
			if len(cleaned) < minCodeLength {
				return "", &entity.ValidationError{
					Field: "alias",
					Reason: fmt.Sprintf("must be at least %d characters after removing the %q prefix",
						minCodeLength, AliasPrefix),
				}
			}
			if err := validateCode("alias", cleaned); err != nil {
				return "", err
			}
			return cleaned, nil
		}
	}

	if code != "" {
		if err := validateCode("short_code", code); err != nil {
			return "", err
		}
		return code, nil
	}

	return gonanoid.New(randomCodeLength)
}

// UserChosen reports whether the alias/code pair carries a code picked by
// the user. Generated codes may be retried on conflict; user-chosen codes
// must surface the conflict instead.
func UserChosen(alias, code string) bool {
	return strings.TrimPrefix(alias, AliasPrefix) != "" || code != ""
}

func validateCode(field, code string) error {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return &entity.ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must be between %d and %d characters", minCodeLength, maxCodeLength),
		}
	}
	if !codePattern.MatchString(code) {
		return &entity.ValidationError{
			Field:  field,
			Reason: "may only contain letters, digits, hyphen and underscore",
		}
	}
	return nil
}
