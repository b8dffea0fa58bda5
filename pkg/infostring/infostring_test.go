package infostring

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
)

func init() {
	SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const sample = `\name\player\skin\male/grunt\rate\25000`

func TestValueForKey(t *testing.T) {
	tests := []struct {
		name string
		s    string
		key  string
		want string
	}{
		{"first", sample, "name", "player"},
		{"middle", sample, "skin", "male/grunt"},
		{"last", sample, "rate", "25000"},
		{"missing", sample, "hand", ""},
		{"no leading backslash", `name\player\rate\1`, "rate", "1"},
		{"empty blob", "", "name", ""},
		{"unterminated key", `\name`, "name", ""},
		{"empty value", `\a\\b\2`, "a", ""},
		{"first match wins", `\a\1\a\2`, "a", "1"},
		{"value is not a key", sample, "player", ""},
		{"trailing backslash", `\a\1\`, "b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValueForKey(tt.s, tt.key); got != tt.want {
				t.Errorf("ValueForKey(%q, %q) = %q, want %q", tt.s, tt.key, got, tt.want)
			}
		})
	}
}

func TestValueForKeyIndependentResults(t *testing.T) {
	a := ValueForKey(sample, "name")
	b := ValueForKey(sample, "rate")
	if a == b || a != "player" || b != "25000" {
		t.Errorf("lookups interfere: %q, %q", a, b)
	}
}

func TestRemoveKey(t *testing.T) {
	tests := []struct {
		name string
		s    string
		key  string
		want string
	}{
		{"first", sample, "name", `\skin\male/grunt\rate\25000`},
		{"middle", sample, "skin", `\name\player\rate\25000`},
		{"last", sample, "rate", `\name\player\skin\male/grunt`},
		{"missing", sample, "hand", sample},
		{"backslash in key", sample, `na\me`, sample},
		{"no leading backslash", `a\1\b\2`, "a", `\b\2`},
		{"only pair", `\a\1`, "a", ""},
		{"first of duplicates", `\a\1\a\2`, "a", `\a\2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveKey(tt.s, tt.key); got != tt.want {
				t.Errorf("RemoveKey(%q, %q) = %q, want %q", tt.s, tt.key, got, tt.want)
			}
		})
	}
}

func TestRemoveThenLookup(t *testing.T) {
	s := RemoveKey(sample, "skin")
	if v := ValueForKey(s, "skin"); v != "" {
		t.Errorf("ValueForKey after RemoveKey = %q, want empty", v)
	}
}

func TestSetValueForKey(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		key   string
		value string
		want  string
	}{
		{"empty blob", "", "k", "v", `\k\v`},
		{"append", `\a\1`, "b", "2", `\a\1\b\2`},
		{"replace moves to end", sample, "name", "other", `\skin\male/grunt\rate\25000\name\other`},
		{"empty value removes", sample, "skin", "", `\name\player\rate\25000`},
		{"empty value on missing key", `\a\1`, "b", "", `\a\1`},
		{"high bit stripped", "", "k", "caf\xe9", `\k\cafi`},
		{"control bytes dropped", "", "k", "a\tb\x7f", `\k\ab`},
		{"max token", "", strings.Repeat("k", 63), "v", `\` + strings.Repeat("k", 63) + `\v`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SetValueForKey(tt.s, tt.key, tt.value)
			if err != nil {
				t.Fatalf("SetValueForKey() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SetValueForKey() = %q, want %q", got, tt.want)
			}
		})
	}

	s, _ := SetValueForKey("", "k", "v")
	if v := ValueForKey(s, "k"); v != "v" {
		t.Errorf("ValueForKey(SetValueForKey(k, v)) = %q, want \"v\"", v)
	}
}

func TestSetValueForKeyRejected(t *testing.T) {
	full := `\a\` + strings.Repeat("x", MaxInfoString-3)

	tests := []struct {
		name   string
		s      string
		key    string
		value  string
		want   error
		reason string
	}{
		{"backslash in value", sample, "k", `a\b`, ErrBackslash, "backslash"},
		{"backslash in key", sample, `k\`, "v", ErrBackslash, "backslash"},
		{"quote in key", sample, `k"`, "v", ErrQuote, "quote"},
		{"quote in value", sample, "k", `say "hi"`, ErrQuote, "quote"},
		{"semicolon in key", sample, "k;", "v", ErrSemicolon, "semicolon"},
		{"semicolon in value", sample, "k", "a;quit", ErrSemicolon, "semicolon"},
		{"key too long", sample, strings.Repeat("k", 64), "v", ErrTooLong, "too_long"},
		{"value too long", sample, "k", strings.Repeat("v", 64), ErrTooLong, "too_long"},
		{"overflow", full, "b", "1", ErrInfoOverflow, "overflow"},
		{"overflow on replace keeps old pair", full + `\name\x`, "name", strings.Repeat("y", 10), ErrInfoOverflow, "overflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SetValueForKey(tt.s, tt.key, tt.value)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if !snaperrors.IsSoft(err) {
				t.Error("rejection should be soft")
			}
			if got != tt.s {
				t.Errorf("blob changed on rejection: %q", got)
			}
			if r := Reason(err); r != tt.reason {
				t.Errorf("Reason() = %q, want %q", r, tt.reason)
			}
		})
	}
}

func TestSetValueForKeyLogsRejection(t *testing.T) {
	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil))) })

	SetValueForKey("", "k", `a\b`)
	if !strings.Contains(logs.String(), "info string write rejected") {
		t.Errorf("missing warning, got %q", logs.String())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{sample, true},
		{"", true},
		{`\a\"x"`, false},
		{`\a\b;c`, false},
		{`\a\` + strings.Repeat("x", MaxInfoString), false},
	}
	for _, tt := range tests {
		if got := Validate(tt.s); got != tt.want {
			t.Errorf("Validate(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestPairs(t *testing.T) {
	td.Cmp(t, Pairs(sample), []Pair{
		{Key: "name", Value: "player"},
		{Key: "skin", Value: "male/grunt"},
		{Key: "rate", Value: "25000"},
	})
	td.Cmp(t, Pairs(`\lonely`), []Pair{{Key: "lonely"}})
	td.CmpNil(t, Pairs(""))
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, `\name\player\a_rather_long_key_name\1`); err != nil {
		t.Fatal(err)
	}

	want := "name                player\n" +
		"a_rather_long_key_name1\n"
	if buf.String() != want {
		t.Errorf("Print() =\n%q\nwant\n%q", buf.String(), want)
	}

	buf.Reset()
	Print(&buf, `\name\player\orphan`)
	if !strings.HasSuffix(buf.String(), "orphan              \n") {
		t.Errorf("Print() with missing value = %q", buf.String())
	}
}

func FuzzSetValueForKey(f *testing.F) {
	f.Add(sample, "name", "x")
	f.Add("", "k", "")

	f.Fuzz(func(t *testing.T, s, key, value string) {
		got, err := SetValueForKey(s, key, value)
		if err != nil {
			if got != s {
				t.Fatalf("rejected write changed the blob")
			}
			return
		}
		if value != "" && len(got) > MaxInfoString {
			t.Fatalf("accepted write produced %d bytes", len(got))
		}
	})
}

func BenchmarkValueForKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ValueForKey(sample, "rate")
	}
}
