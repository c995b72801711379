// Package validate holds the field checks shared by the registration wizard,
// the admin editor and the census survey forms.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/nacp/internal/catalog"
)

var (
	emailRegexp     = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w{2,4}$`)
	telephoneRegexp = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
)

// Errors collects user-facing validation messages in the order they were found.
type Errors []string

// Add appends a formatted message.
func (e *Errors) Add(format string, args ...any) {
	*e = append(*e, fmt.Sprintf(format, args...))
}

// Check adds msg when ok is false.
func (e *Errors) Check(ok bool, msg string) {
	if !ok {
		*e = append(*e, msg)
	}
}

// Err returns nil when no messages were collected.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	return strings.Join(e, "; ")
}

// Messages extracts the messages from an error produced by Errors.Err.
func Messages(err error) []string {
	var ve Errors
	if errors.As(err, &ve) {
		return ve
	}
	if err != nil {
		return []string{err.Error()}
	}
	return nil
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailRegexp.MatchString(s)
}

// Telephone reports whether s is in the "(242) 456-4567" format.
func Telephone(s string) bool {
	return telephoneRegexp.MatchString(s)
}

// Cell reports whether s is a 7 or 10 digit number. Spaces, dashes, dots,
// parentheses and a leading "+" are ignored.
func Cell(s string) bool {
	digits := DigitsOnly(s)
	if digits == "" {
		return false
	}
	return len(digits) == 7 || len(digits) == 10
}

// DigitsOnly strips phone punctuation from s. It returns "" when anything
// other than digits and punctuation is present.
func DigitsOnly(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return ""
		}
	}
	return b.String()
}

// Latitude reports whether lat is within [-90, 90].
func Latitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// Longitude reports whether lon is within [-180, 180].
func Longitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}

// Required adds "<field> is required" when value is blank.
func (e *Errors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add("%s is required", field)
	}
}

// OneOf adds an error when value is not a code of list.
func (e *Errors) OneOf(field, value string, list catalog.List) {
	if !list.Contains(value) {
		e.Add("%s must be one of: %s", field, strings.Join(labels(list), ", "))
	}
}

// AtLeastOne requires a non-empty selection drawn entirely from list.
func (e *Errors) AtLeastOne(field string, values []string, list catalog.List) {
	if len(values) == 0 {
		e.Add("Select at least one %s", field)
		return
	}
	for _, v := range values {
		if !list.Contains(v) {
			e.Add("%q is not a valid %s", v, field)
			return
		}
	}
}

// IntRange adds an error when v is outside [lo, hi].
func (e *Errors) IntRange(field string, v, lo, hi int) {
	if v < lo || v > hi {
		e.Add("%s must be between %d and %d", field, lo, hi)
	}
}

// FloatMin adds an error when v is below min, or not above it when strict.
func (e *Errors) FloatMin(field string, v, min float64, strict bool) {
	switch {
	case strict && v <= min:
		e.Add("%s must be greater than %g", field, min)
	case !strict && v < min:
		e.Add("%s must be at least %g", field, min)
	}
}

// MaxLen adds an error when s has more than n characters.
func (e *Errors) MaxLen(field, s string, n int) {
	if utf8.RuneCountInString(s) > n {
		e.Add("%s must be at most %d characters", field, n)
	}
}

func labels(list catalog.List) []string {
	out := make([]string, len(list))
	for i, o := range list {
		out[i] = o.Label
	}
	return out
}
