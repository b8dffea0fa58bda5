package infostring

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
)

// Limits.
const (
	// MaxInfoString bounds the length of a whole info string.
	MaxInfoString = 512

	// MaxInfoKey bounds a key, including room for a terminator.
	MaxInfoKey = 64

	// MaxInfoValue bounds a value, including room for a terminator.
	MaxInfoValue = 64
)

// printColumn is the width keys are padded to by Print.
const printColumn = 20

// Rejection reasons. SetValueForKey wraps them in soft errors.
var (
	ErrBackslash    = errors.New("infostring: key or value contains a backslash")
	ErrQuote        = errors.New("infostring: key or value contains a quote")
	ErrSemicolon    = errors.New("infostring: key or value contains a semicolon")
	ErrTooLong      = errors.New("infostring: key or value too long")
	ErrInfoOverflow = errors.New("infostring: info string length exceeded")
)

var logger = slog.Default().With("component", "infostring")

// SetLogger replaces the logger used for rejection warnings.
func SetLogger(l *slog.Logger) {
	logger = l.With("component", "infostring")
}

// Pair is one key/value entry.
type Pair struct {
	Key   string
	Value string
}

// ValueForKey returns the value of the first pair whose key equals key, or
// "" when there is none or the blob is malformed.
func ValueForKey(s, key string) string {
	s = strings.TrimPrefix(s, `\`)
	for {
		i := strings.IndexByte(s, '\\')
		if i < 0 {
			// unterminated key
			return ""
		}
		k := s[:i]
		s = s[i+1:]

		j := strings.IndexByte(s, '\\')
		var v string
		if j < 0 {
			v, s = s, ""
		} else {
			v, s = s[:j], s[j+1:]
		}

		if k == key {
			return v
		}
		if j < 0 {
			return ""
		}
	}
}

// RemoveKey returns s without the first pair keyed by key. A key containing
// a backslash cannot be stored and leaves s unchanged.
func RemoveKey(s, key string) string {
	if strings.Contains(key, `\`) {
		return s
	}

	pos := 0
	for {
		start := pos
		if pos < len(s) && s[pos] == '\\' {
			pos++
		}

		i := strings.IndexByte(s[pos:], '\\')
		if i < 0 {
			return s
		}
		k := s[pos : pos+i]
		pos += i + 1

		if j := strings.IndexByte(s[pos:], '\\'); j < 0 {
			pos = len(s)
		} else {
			pos += j
		}

		if k == key {
			return s[:start] + s[pos:]
		}
		if pos >= len(s) {
			return s
		}
	}
}

// SetValueForKey returns s with key set to value, replacing any existing
// pair. An empty value only removes the key.
//
// Rejected writes return s unchanged and a soft error wrapping one of the
// Err* reasons. Bytes outside printable ASCII are dropped from the stored
// pair after the high bit is stripped.
func SetValueForKey(s, key, value string) (string, error) {
	if err := checkToken(key, value); err != nil {
		return s, reject(err, key)
	}

	rest := RemoveKey(s, key)
	if value == "" {
		return rest, nil
	}

	pair := `\` + key + `\` + value
	if len(pair)+len(rest) > MaxInfoString {
		err := snaperrors.New("I003").Wrap(ErrInfoOverflow).
			WithDetailf("%d + %d > %d", len(rest), len(pair), MaxInfoString)
		return s, reject(err, key)
	}

	var b strings.Builder
	b.Grow(len(rest) + len(pair))
	b.WriteString(rest)
	for i := 0; i < len(pair); i++ {
		c := pair[i] & 0x7F
		if c >= 32 && c < 127 {
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func checkToken(key, value string) error {
	forbidden := []struct {
		c   string
		err error
	}{
		{`\`, ErrBackslash},
		{`"`, ErrQuote},
		{";", ErrSemicolon},
	}
	for _, f := range forbidden {
		if strings.Contains(key, f.c) || strings.Contains(value, f.c) {
			return snaperrors.New("I001").Wrap(f.err).WithDetailf("%q", f.c)
		}
	}

	if len(key) > MaxInfoKey-1 || len(value) > MaxInfoValue-1 {
		return snaperrors.New("I002").Wrap(ErrTooLong).
			WithDetailf("must be < %d characters", MaxInfoKey)
	}
	return nil
}

func reject(err error, key string) error {
	logger.Warn("info string write rejected", "key", key, "error", err)
	return err
}

// Reason returns a short label for a rejection error, for metrics and
// diagnostics. It returns "" for errors that are not rejections.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrBackslash):
		return "backslash"
	case errors.Is(err, ErrQuote):
		return "quote"
	case errors.Is(err, ErrSemicolon):
		return "semicolon"
	case errors.Is(err, ErrTooLong):
		return "too_long"
	case errors.Is(err, ErrInfoOverflow):
		return "overflow"
	default:
		return ""
	}
}

// Validate reports whether s may be sent to a peer: it must not contain a
// quote or a semicolon and must fit in MaxInfoString.
func Validate(s string) bool {
	if strings.ContainsAny(s, `";`) {
		return false
	}
	return len(s) <= MaxInfoString
}

// Pairs returns the pairs of s in order. A trailing key without a value is
// returned with an empty value.
func Pairs(s string) []Pair {
	var pairs []Pair
	s = strings.TrimPrefix(s, `\`)
	for s != "" {
		var p Pair
		p.Key, s, _ = strings.Cut(s, `\`)
		p.Value, s, _ = strings.Cut(s, `\`)
		pairs = append(pairs, p)
	}
	return pairs
}

// Print writes one line per pair, the key left-aligned and padded to a
// fixed column. Keys wider than the column are printed in full, not
// truncated, so the value follows them directly. A key with no value ends
// the dump with a warning.
func Print(w io.Writer, s string) error {
	s = strings.TrimPrefix(s, `\`)
	for s != "" {
		key, rest, ok := strings.Cut(s, `\`)
		if _, err := fmt.Fprintf(w, "%-*s", printColumn, key); err != nil {
			return err
		}
		if !ok {
			logger.Warn("missing value", "key", key)
			_, err := io.WriteString(w, "\n")
			return err
		}

		var value string
		value, s, _ = strings.Cut(rest, `\`)
		if _, err := fmt.Fprintf(w, "%s\n", value); err != nil {
			return err
		}
	}
	return nil
}
