package codes

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

var (
	ErrInvalidLength = errors.New("invalid code length")
	ErrInvalidPrefix = errors.New("invalid code prefix")
)

const (
	// AppointmentPrefix is the default prefix of appointment codes
	AppointmentPrefix = "LH"

	// OrderPrefix is the default prefix of order codes
	OrderPrefix = "HD"

	// DefaultDigits is the zero-padded width of the numeric suffix
	DefaultDigits = 6
)

// Sequence issues human-readable sequential codes such as "LH000042".
type Sequence struct {
	Prefix string
	Digits int
}

// NewSequence validates prefix and digits.
func NewSequence(prefix string, digits int) (Sequence, error) {
	if digits < 1 || digits > 18 {
		return Sequence{}, ErrInvalidLength
	}
	prefix = NormalizeCode(prefix)
	if prefix == "" || strings.ContainsAny(prefix, "0123456789") {
		return Sequence{}, ErrInvalidPrefix
	}
	return Sequence{Prefix: prefix, Digits: digits}, nil
}

// Format renders n with the sequence prefix, e.g. Format(7) -> "LH000007".
// Numbers wider than Digits are rendered in full.
func (s Sequence) Format(n int) string {
	return fmt.Sprintf("%s%0*d", s.Prefix, s.Digits, n)
}

// Suffix extracts the numeric part of code. It reports false for codes
// issued under another prefix.
func (s Sequence) Suffix(code string) (int, bool) {
	rest, ok := strings.CutPrefix(NormalizeCode(code), s.Prefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Next returns the code after the highest of highWater and every suffix found
// in existing, together with its number. The caller stores the number as the
// new high-water mark so deleted codes are never reissued.
func (s Sequence) Next(highWater int, existing iter.Seq[string]) (string, int) {
	n := highWater
	for code := range existing {
		if v, ok := s.Suffix(code); ok && v > n {
			n = v
		}
	}
	n++
	return s.Format(n), n
}

// NormalizeCode normalizes a code for comparison (uppercase, trim whitespace).
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
