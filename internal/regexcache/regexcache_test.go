package regexcache

import (
	"strings"
	"testing"

	appErrors "github.com/logforge/logforge/internal/errors"
)

func TestGetCompilesAndCaches(t *testing.T) {
	c := New(0)
	re1, err := c.Get("err.*timeout", true)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !re1.MatchString("errXtimeout") {
		t.Fatal("expected compiled regex to match")
	}

	re2, err := c.Get("err.*timeout", true)
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if re1 != re2 {
		t.Fatal("expected cache hit to return the same *regexp.Regexp instance")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", c.Len())
	}
}

func TestGetCaseSensitivityIsPartOfKey(t *testing.T) {
	c := New(0)
	if _, err := c.Get("warn", true); err != nil {
		t.Fatalf("Get cs: %v", err)
	}
	if _, err := c.Get("warn", false); err != nil {
		t.Fatalf("Get ci: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected case-sensitive and case-insensitive variants to occupy separate entries, got %d", c.Len())
	}
}

func TestGetCaseInsensitiveActuallyFolds(t *testing.T) {
	c := New(0)
	re, err := c.Get("warn", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !re.MatchString("WARN: disk low") {
		t.Fatal("expected case-insensitive pattern to match uppercase text")
	}
}

func TestGetRejectsOverLengthPattern(t *testing.T) {
	c := New(0)
	_, err := c.Get(strings.Repeat("a", MaxPatternLength+1), true)
	if err == nil {
		t.Fatal("expected RegexUnsafe for over-length pattern")
	}
	if !appErrors.Is(err, appErrors.KindRegexUnsafe) {
		t.Fatalf("expected KindRegexUnsafe, got %v", err)
	}
}

func TestGetRejectsInvalidSyntax(t *testing.T) {
	c := New(0)
	_, err := c.Get("(unterminated", true)
	if err == nil {
		t.Fatal("expected error for invalid regex syntax")
	}
	if !appErrors.Is(err, appErrors.KindRegexUnsafe) {
		t.Fatalf("expected KindRegexUnsafe, got %v", err)
	}
}

func TestGetRejectsNestedQuantifiedGroups(t *testing.T) {
	c := New(0)
	cases := []string{
		"(a+)+",
		"(a*)*",
		"(a+)*b",
	}
	for _, p := range cases {
		_, err := c.Get(p, true)
		if err == nil {
			t.Fatalf("pattern %q: expected RegexUnsafe for nested quantified groups", p)
		}
		if !appErrors.Is(err, appErrors.KindRegexUnsafe) {
			t.Fatalf("pattern %q: expected KindRegexUnsafe, got %v", p, err)
		}
	}
}

func TestGetRejectsQuantifiedAlternationOfRepetitions(t *testing.T) {
	c := New(0)
	_, err := c.Get("(a+|a+)*", true)
	if err == nil {
		t.Fatal("expected RegexUnsafe for quantified alternation of repetitions")
	}
	if !appErrors.Is(err, appErrors.KindRegexUnsafe) {
		t.Fatalf("expected KindRegexUnsafe, got %v", err)
	}
}

func TestGetAllowsOrdinaryPatterns(t *testing.T) {
	c := New(0)
	patterns := []string{
		`\d{3}-\d{4}`,
		`error|warn|fatal`,
		`^\[\d{4}-\d{2}-\d{2}\]`,
		`connection (refused|reset)`,
	}
	for _, p := range patterns {
		if _, err := c.Get(p, true); err != nil {
			t.Fatalf("pattern %q: expected to compile, got %v", p, err)
		}
	}
}

func TestEvictionDropsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	if _, err := c.Get("aaa", true); err != nil {
		t.Fatalf("Get aaa: %v", err)
	}
	if _, err := c.Get("bbb", true); err != nil {
		t.Fatalf("Get bbb: %v", err)
	}
	// touch aaa so it is more recently used than bbb
	if _, err := c.Get("aaa", true); err != nil {
		t.Fatalf("Get aaa again: %v", err)
	}
	if _, err := c.Get("ccc", true); err != nil {
		t.Fatalf("Get ccc: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected capacity to cap entries at 2, got %d", c.Len())
	}

	key := fingerprint("bbb", true)
	if _, ok := c.items[key]; ok {
		t.Fatal("expected bbb to have been evicted as least recently used")
	}
	for _, want := range []string{"aaa", "ccc"} {
		if _, ok := c.items[fingerprint(want, true)]; !ok {
			t.Fatalf("expected %q to remain cached", want)
		}
	}
}
