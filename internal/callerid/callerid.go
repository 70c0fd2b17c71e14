package callerid

// #region imports
import (
	"strings"
)

// #endregion

// #region caller-id

// CallerID is a normalized phone number, or the Unknown sentinel when the
// telephony layer delivered a withheld or missing caller id.
type CallerID string

// Unknown marks a call whose number was never resolved.
const Unknown CallerID = "Unknown"

// IsUnknown reports whether the caller id is the Unknown sentinel.
func (c CallerID) IsUnknown() bool {
	return c == Unknown
}

// #endregion

// #region normalize

// Normalize strips everything except digits and a leading '+' from a raw
// caller string. Blank or digit-free input maps to Unknown.
func Normalize(raw string) CallerID {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, string(Unknown)) {
		return Unknown
	}

	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	n := b.String()
	if strings.TrimPrefix(n, "+") == "" {
		return Unknown
	}
	return CallerID(n)
}

// Digits returns the normalized digit string without the leading '+'.
// Unknown has no digits.
func (c CallerID) Digits() string {
	if c.IsUnknown() {
		return ""
	}
	return strings.TrimPrefix(string(Normalize(string(c))), "+")
}

// #endregion

// #region match

// Match compares two caller ids by suffix containment: one number's digits
// must end with the other's. This tolerates a missing country code on either
// side ("5551234567" matches "+15551234567"). Unknown matches nothing,
// including itself.
func Match(a, b CallerID) bool {
	if a.IsUnknown() || b.IsUnknown() {
		return false
	}
	da, db := a.Digits(), b.Digits()
	if da == "" || db == "" {
		return false
	}
	return strings.HasSuffix(da, db) || strings.HasSuffix(db, da)
}

// #endregion
