package evidence

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"pgregory.net/rapid"
)

func TestTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 8, 19, 12, 30, 45, 123_000_000, time.UTC)
	if got, want := Timestamp(ts), "2025-08-19T12-30-45-123Z"; got != want {
		t.Errorf("Timestamp = %q, want %q", got, want)
	}

	// Non-UTC instants are rendered in UTC.
	local := ts.In(time.FixedZone("ART", -3*60*60))
	if got := Timestamp(local); got != "2025-08-19T12-30-45-123Z" {
		t.Errorf("Timestamp(local) = %q", got)
	}

	// Whole seconds keep the millisecond field.
	if got := Timestamp(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)); got != "2025-01-02T03-04-05-000Z" {
		t.Errorf("Timestamp(whole second) = %q", got)
	}
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 8, 19, 12, 30, 45, 123_000_000, time.UTC)
	got, err := ParseTimestamp(Timestamp(ts))
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("round trip = %v, want %v", got, ts)
	}
	if _, err := ParseTimestamp("yesterday"); !errors.Is(err, ErrBadFilename) {
		t.Errorf("err = %v, want ErrBadFilename", err)
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abcXYZ019", "abcXYZ019"},
		{"form filled!", "form-filled-"},
		{"happy-path-login", "happy-path-login"},
		{"a__b", "a--b"},
		{"ñandú", "-and-"},
		{"../../etc/passwd", "------etc-passwd"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitize_Properties(t *testing.T) {
	t.Parallel()

	alnum := regexp.MustCompile(`^[A-Za-z0-9-]*$`)
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.String().Draw(t, "in")
		out := Sanitize(in)

		if utf8.RuneCountInString(out) != utf8.RuneCountInString(in) {
			t.Fatalf("Sanitize(%q) = %q changes rune count", in, out)
		}
		if !alnum.MatchString(out) {
			t.Fatalf("Sanitize(%q) = %q has illegal characters", in, out)
		}
		if strings.Contains(out, FieldSeparator) {
			t.Fatalf("Sanitize(%q) = %q contains the field separator", in, out)
		}
		inRunes, outRunes := []rune(in), []rune(out)
		for i, r := range inRunes {
			isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if isAlnum && outRunes[i] != r {
				t.Fatalf("alphanumeric %q at %d was replaced", r, i)
			}
			if !isAlnum && outRunes[i] != '-' {
				t.Fatalf("non-alphanumeric %q at %d became %q", r, i, outRunes[i])
			}
		}
	})
}

func TestFilename_Format(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(`^login__happy-path-login__form-filled-__SUCCESS__\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z\.png$`)
	name := Filename("login", "happy-path-login", "form filled!", StatusSuccess, Timestamp(time.Now()))
	if !re.MatchString(name) {
		t.Errorf("Filename = %q, want match of %s", name, re)
	}
}

func TestParseFilename(t *testing.T) {
	t.Parallel()

	name := Filename("login", "happy path", "form filled!", StatusSuccess, "2025-08-19T12-30-45-123Z")
	a, err := ParseFilename(name)
	if err != nil {
		t.Fatalf("ParseFilename(%q): %v", name, err)
	}
	want := Artifact{
		Feature:   "login",
		TestName:  "happy-path",
		StepName:  "form-filled-",
		Status:    StatusSuccess,
		Timestamp: "2025-08-19T12-30-45-123Z",
	}
	if a != want {
		t.Errorf("ParseFilename = %+v, want %+v", a, want)
	}
	if a.Filename() != name {
		t.Errorf("re-encoded %q, want %q", a.Filename(), name)
	}

	// A feature may itself contain the separator.
	odd := Filename("user__settings", "t", "s", StatusFailure, "2025-08-19T12-30-45-123Z")
	b, err := ParseFilename(odd)
	if err != nil {
		t.Fatalf("ParseFilename(%q): %v", odd, err)
	}
	if b.Feature != "user__settings" || b.Status != StatusFailure {
		t.Errorf("ParseFilename(%q) = %+v", odd, b)
	}
}

func TestParseFilename_Rejects(t *testing.T) {
	t.Parallel()

	bad := []string{
		"notes.txt",
		"login__only__three.png",
		"login__t__s__DONE__2025-08-19T12-30-45-123Z.png",
		"__t__s__SUCCESS__2025-08-19T12-30-45-123Z.png",
	}
	for _, name := range bad {
		if _, err := ParseFilename(name); !errors.Is(err, ErrBadFilename) {
			t.Errorf("ParseFilename(%q) err = %v, want ErrBadFilename", name, err)
		}
	}
}

func TestFilename_RoundTripProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		feature := rapid.StringMatching(`[a-z][a-z-]{0,12}`).Draw(t, "feature")
		testName := rapid.String().Draw(t, "test")
		step := rapid.String().Draw(t, "step")
		ts := Timestamp(time.UnixMilli(rapid.Int64Range(0, 4102444800000).Draw(t, "ms")))

		name := Filename(feature, testName, step, StatusSuccess, ts)
		a, err := ParseFilename(name)
		if err != nil {
			t.Fatalf("ParseFilename(%q): %v", name, err)
		}
		if a.Feature != feature || a.TestName != Sanitize(testName) || a.StepName != Sanitize(step) || a.Timestamp != ts {
			t.Fatalf("ParseFilename(%q) = %+v", name, a)
		}
	})
}

func TestLayout(t *testing.T) {
	t.Parallel()

	l := NewLayout("")
	if l.Root != DefaultRoot {
		t.Errorf("Root = %q, want %q", l.Root, DefaultRoot)
	}
	if got := l.ScreenshotPath("a.png"); got != "test-evidence/screenshots/a.png" {
		t.Errorf("ScreenshotPath = %q", got)
	}

	root := t.TempDir()
	l = NewLayout(root)
	if err := l.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if len(l.Dirs()) != 4 {
		t.Fatalf("Dirs = %v", l.Dirs())
	}
	for _, d := range l.Dirs() {
		if !strings.HasPrefix(d, root) {
			t.Errorf("dir %q outside root %q", d, root)
		}
	}
	var zero Layout
	if zero.Reports() != "test-evidence/reports" {
		t.Errorf("zero layout Reports = %q", zero.Reports())
	}
}
