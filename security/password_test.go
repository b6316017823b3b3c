package security

import (
	"strings"
	"testing"
)

func containsAny(s, set string) bool {
	return strings.ContainsAny(s, set)
}

func TestGenerateTempPasswordComposition(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GenerateTempPassword(14)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pw) != 14 {
			t.Fatalf("length = %d, want 14", len(pw))
		}
		if !containsAny(pw, tempPasswordUpper) {
			t.Errorf("password %q missing uppercase", pw)
		}
		if !containsAny(pw, tempPasswordLower) {
			t.Errorf("password %q missing lowercase", pw)
		}
		if !containsAny(pw, tempPasswordDigits) {
			t.Errorf("password %q missing digit", pw)
		}
		if !containsAny(pw, tempPasswordSymbols) {
			t.Errorf("password %q missing symbol", pw)
		}
	}
}

func TestGenerateTempPasswordMinimumLength(t *testing.T) {
	for _, requested := range []int{0, 1, 4, 7} {
		pw, err := GenerateTempPassword(requested)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pw) != minTempPasswordLength {
			t.Errorf("GenerateTempPassword(%d) length = %d, want %d", requested, len(pw), minTempPasswordLength)
		}
	}
}

func TestGenerateTempPasswordExcludesAmbiguousGlyphs(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GenerateTempPassword(32)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if containsAny(pw, "IOl01") {
			t.Fatalf("password %q contains an ambiguous glyph", pw)
		}
	}
}

func TestGenerateTempPasswordDistinctOutputs(t *testing.T) {
	a, err := GenerateTempPassword(14)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateTempPassword(14)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two generated passwords are identical")
	}
}
