// Package phone canonicalises user-entered phone numbers into the two
// digit-string variants used for record lookups. Upstream data is stored
// inconsistently with or without the country prefix, so every contact
// carries both forms.
package phone

import (
	"strings"

	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
)

const (
	// MinDigits and MaxDigits bound the accepted digit count of a raw
	// number after stripping formatting.
	MinDigits = 8
	MaxDigits = 15
)

// Contact is the canonical form of a phone number. Immutable once derived;
// it is computed per request and never persisted.
type Contact struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
	Bare       string `json:"bare"`
}

// Variants returns the lookup variants in the order they should be tried:
// the full normalized form first, then the bare form when it differs.
func (c Contact) Variants() []string {
	if c.Bare == "" || c.Bare == c.Normalized {
		return []string{c.Normalized}
	}
	return []string{c.Normalized, c.Bare}
}

// Normalizer derives canonical contacts for a single country prefix.
type Normalizer struct {
	countryCode string
}

// NewNormalizer builds a normalizer for the given country calling code
// (digits only, e.g. "55").
func NewNormalizer(countryCode string) *Normalizer {
	return &Normalizer{countryCode: digitsOnly(countryCode)}
}

// Normalize strips all non-digit characters, guarantees the country prefix
// on the normalized form, and derives the bare (prefix-less) variant. It is
// idempotent: normalizing an already normalized number yields the same
// contact. The prefix is only prepended while the result stays within
// MaxDigits, so a long number never normalizes into a form Normalize would
// reject. Numbers whose digit count falls outside [MinDigits, MaxDigits]
// are rejected.
func (n *Normalizer) Normalize(raw string) (Contact, error) {
	digits := digitsOnly(raw)
	if len(digits) < MinDigits || len(digits) > MaxDigits {
		return Contact{}, appErrors.Clone(appErrors.ErrInvalidContact, "phone number must contain 8 to 15 digits")
	}

	normalized := digits
	if n.countryCode != "" && !strings.HasPrefix(digits, n.countryCode) && len(n.countryCode)+len(digits) <= MaxDigits {
		normalized = n.countryCode + digits
	}

	bare := normalized
	if n.countryCode != "" && strings.HasPrefix(normalized, n.countryCode) {
		if stripped := normalized[len(n.countryCode):]; len(stripped) >= MinDigits {
			bare = stripped
		}
	}

	return Contact{Raw: raw, Normalized: normalized, Bare: bare}, nil
}

func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
