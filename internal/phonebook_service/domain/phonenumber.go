package domain

import (
	"regexp"
	"strings"
)

// Phone number kind labels. Kinds are stored as free text but inputs are
// constrained to this set.
const (
	KindMobile = "mobile"
	KindHome   = "home"
	KindWork   = "work"
)

var (
	// Strict per-number rule, applied when a PhoneNumber is validated.
	// Accepts +7/8, a 3-digit area code with optional parentheses, then
	// 3-2-2 digit groups with optional space or hyphen separators.
	phoneRegex = regexp.MustCompile(`^(\+7|8)\s*\(?\d{3}\)?[-\s]?\d{3}[-\s]?\d{2}[-\s]?\d{2}$`)

	// Alternate form check used by input surfaces to vet a raw string before
	// a PhoneNumber is built. Accepts +7/8, a plain or parenthesized area
	// code, then either 7 consecutive digits or hyphen-joined 3-2-2 groups.
	// Kept separate from phoneRegex: the two acceptance sets are close but
	// not proven identical, and both behaviors are relied on.
	phoneFormRegex = regexp.MustCompile(`^(\+7|8)(\(\d{3}\)|\d{3})(\d{7}|\d{3}-\d{2}-\d{2})$`)

	separatorRegex = regexp.MustCompile(`[\s-]`)
)

// PhoneNumber is an immutable-by-convention value: copies are independent and
// a number is only persisted or returned to callers after validation.
type PhoneNumber struct {
	number string
	kind   string
}

// NewPhoneNumber builds a phone number with the given kind. An empty kind
// defaults to mobile. The number is stored as given; use IsValid to check it.
func NewPhoneNumber(number, kind string) PhoneNumber {
	if kind == "" {
		kind = KindMobile
	}
	return PhoneNumber{number: number, kind: kind}
}

func (p PhoneNumber) Number() string { return p.number }
func (p PhoneNumber) Kind() string   { return p.kind }

// IsValid reports whether the stored number passes the strict phone rule.
func (p PhoneNumber) IsValid() bool {
	return ValidatePhoneNumber(p.number)
}

// SetNumber stores the number in a canonical form: whitespace and hyphens are
// removed and a leading 8 is rewritten to +7. No validity check is applied.
func (p *PhoneNumber) SetNumber(number string) {
	cleaned := separatorRegex.ReplaceAllString(number, "")
	if strings.HasPrefix(cleaned, "8") {
		cleaned = "+7" + cleaned[1:]
	}
	p.number = cleaned
}

// SetKind replaces the kind label. Kinds are free text at this level; callers
// that need the constrained set should check IsValidKind first.
func (p *PhoneNumber) SetKind(kind string) {
	p.kind = kind
}

// Formatted returns the number for display: hyphens stripped, leading 8
// rewritten to +7, and for full-length numbers the area code parenthesized
// and the remainder hyphenated into 3-2-2 groups. It is a positional
// transform, not a validity check; short or malformed inputs pass through
// with only the prefix rewrite applied.
func (p PhoneNumber) Formatted() string {
	s := strings.ReplaceAll(p.number, "-", "")
	if strings.HasPrefix(s, "8") {
		s = "+7" + s[1:]
	}
	if len(s) != 11 && len(s) != 12 {
		return s
	}
	start := 1
	if strings.HasPrefix(s, "+") {
		start = 2
	}
	var b strings.Builder
	b.WriteString(s[:start])
	b.WriteByte('(')
	b.WriteString(s[start : start+3])
	b.WriteByte(')')
	b.WriteString(s[start+3 : start+6])
	b.WriteByte('-')
	b.WriteString(s[start+6 : start+8])
	b.WriteByte('-')
	b.WriteString(s[start+8:])
	return b.String()
}

// ValidatePhoneNumber reports whether s passes the strict phone rule.
// An empty string is never a valid number.
func ValidatePhoneNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return phoneRegex.MatchString(s)
}

// IsValidNumberForm reports whether s matches the alternate grouping rule.
// Input surfaces use this to vet raw strings field-by-field before building
// a PhoneNumber.
func IsValidNumberForm(s string) bool {
	return phoneFormRegex.MatchString(strings.TrimSpace(s))
}

// NormalizeNumber reduces s to digits plus any '+' signs and rewrites a
// leading 8 to +7.
func NormalizeNumber(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if strings.HasPrefix(normalized, "8") {
		normalized = "+7" + normalized[1:]
	}
	return normalized
}

// IsValidKind reports whether kind is one of the supported labels.
func IsValidKind(kind string) bool {
	switch kind {
	case KindMobile, KindHome, KindWork:
		return true
	}
	return false
}
