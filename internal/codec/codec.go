// Package codec converts attribute text into typed values.
//
// Every function is pure. A failure means the attribute was recognised but
// its value is invalid; callers turn that into a schema violation.
package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidID          = errors.New("invalid identifier")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidBool        = errors.New("invalid boolean")
	ErrInvalidInteger     = errors.New("invalid integer")
	ErrInvalidFloat       = errors.New("invalid float")
	ErrIntegerConversion  = errors.New("integer conversion failed")
	ErrInvalidEnumeration = errors.New("invalid enumerated value")
)

// ParseID parses a GUID in the canonical 36-character form or wrapped in
// braces. Other forms accepted by uuid.Parse (urn prefix, bare hex) fail.
func ParseID(s string) (uuid.UUID, error) {
	switch len(s) {
	case 36:
	case 38:
		if s[0] != '{' || s[37] != '}' {
			return uuid.Nil, fmt.Errorf("%w %q", ErrInvalidID, s)
		}
	default:
		return uuid.Nil, fmt.Errorf("%w %q", ErrInvalidID, s)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w %q: %v", ErrInvalidID, s, err)
	}
	return id, nil
}

// ParseTimestamp parses an RFC3339 timestamp. The offset (or Z) is mandatory.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidTimestamp, s)
	}
	return t, nil
}

// RGB is a color with one byte per channel.
type RGB struct {
	R, G, B uint8
}

// ParseColor parses "#RRGGBB" or "#RGB". In the short form each digit is
// replicated into both nibbles, so "#f00" is (255, 0, 0).
func ParseColor(s string) (RGB, error) {
	if len(s) == 0 || s[0] != '#' {
		return RGB{}, fmt.Errorf("%w %q: must start with #", ErrInvalidColor, s)
	}
	digits := s[1:]
	var nibbles [6]uint8
	for i := 0; i < len(digits) && i < 6; i++ {
		n, ok := hexNibble(digits[i])
		if !ok {
			return RGB{}, fmt.Errorf("%w %q: non-hex character", ErrInvalidColor, s)
		}
		nibbles[i] = n
	}
	switch len(digits) {
	case 6:
		return RGB{
			R: nibbles[0]<<4 | nibbles[1],
			G: nibbles[2]<<4 | nibbles[3],
			B: nibbles[4]<<4 | nibbles[5],
		}, nil
	case 3:
		return RGB{
			R: nibbles[0]<<4 | nibbles[0],
			G: nibbles[1]<<4 | nibbles[1],
			B: nibbles[2]<<4 | nibbles[2],
		}, nil
	default:
		return RGB{}, fmt.Errorf("%w %q: want 3 or 6 hex digits", ErrInvalidColor, s)
	}
}

// String renders the color in the long "#rrggbb" form.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// ParseBool parses an xsd:boolean lexical value.
func ParseBool(s string) (bool, error) {
	switch s {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w %q", ErrInvalidBool, s)
}

// ParseUint parses a non-negative integer that must fit in bitSize bits.
// Values outside the range fail with ErrIntegerConversion.
func ParseUint(s string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, bitSize)
	if err != nil {
		return 0, integerError(s, err)
	}
	return v, nil
}

// ParseInt parses a signed integer that must fit in bitSize bits.
func ParseInt(s string, bitSize int) (int64, error) {
	v, err := strconv.ParseInt(s, 10, bitSize)
	if err != nil {
		return 0, integerError(s, err)
	}
	return v, nil
}

// ParseFloat parses an xsd:double lexical value, including INF, -INF and NaN.
func ParseFloat(s string) (float64, error) {
	switch s {
	case "INF", "+INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidFloat, s)
	}
	return v, nil
}

// ParseDate parses an xsd:date (YYYY-MM-DD, optional offset).
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrInvalidTimestamp, s)
}

func integerError(s string, err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		return fmt.Errorf("%w: %q out of range", ErrIntegerConversion, s)
	}
	// A well-formed negative number handed to an unsigned parser is a range
	// problem, not a syntax one.
	if strings.HasPrefix(s, "-") {
		if _, perr := strconv.ParseInt(s, 10, 64); perr == nil || errors.Is(perr, strconv.ErrRange) {
			return fmt.Errorf("%w: %q is negative", ErrIntegerConversion, s)
		}
	}
	return fmt.Errorf("%w %q", ErrInvalidInteger, s)
}

// ParseEnum returns s if it is one of allowed, otherwise ErrInvalidEnumeration.
func ParseEnum(s string, allowed ...string) (string, error) {
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w %q (want one of %s)", ErrInvalidEnumeration, s, strings.Join(allowed, ", "))
}
