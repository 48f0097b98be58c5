package matcher

import (
	"errors"
	"testing"
)

func TestFindPassOrder(t *testing.T) {
	cases := []struct {
		name      string
		file      []string
		target    []string
		wantStart int
		wantPass  Pass
	}{
		{
			name:      "exact match",
			file:      []string{"a", "b", "c"},
			target:    []string{"b", "c"},
			wantStart: 1,
			wantPass:  PassExact,
		},
		{
			name:      "right trim when file has trailing whitespace",
			file:      []string{"a", "b  ", "c"},
			target:    []string{"b", "c"},
			wantStart: 1,
			wantPass:  PassRightTrim,
		},
		{
			name:      "both trim when indentation drifted",
			file:      []string{"a", "    b", "c"},
			target:    []string{"b", "c"},
			wantStart: 1,
			wantPass:  PassTrim,
		},
		{
			name:      "unicode punctuation fold",
			file:      []string{`say "hi"`, "end"},
			target:    []string{"say “hi”", "end"},
			wantStart: 0,
			wantPass:  PassUnicode,
		},
		{
			name:      "em dash folds to hyphen",
			file:      []string{"a - b"},
			target:    []string{"a — b"},
			wantStart: 0,
			wantPass:  PassUnicode,
		},
		{
			name:      "zero-width and BOM runes are dropped",
			file:      []string{"plain"},
			target:    []string{"\ufeffpla​in"},
			wantStart: 0,
			wantPass:  PassUnicode,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Find(tc.file, tc.target, Options{})
			if err != nil {
				t.Fatalf("Find failed: %v", err)
			}
			if m.Start != tc.wantStart {
				t.Errorf("start = %d, want %d", m.Start, tc.wantStart)
			}
			if m.Pass != tc.wantPass {
				t.Errorf("pass = %v, want %v", m.Pass, tc.wantPass)
			}
		})
	}
}

func TestFindEOFAnchorPrefersLastOccurrence(t *testing.T) {
	file := []string{"start", "marker", "middle", "marker", "end"}

	m, err := Find(file, []string{"marker", "end"}, Options{EOFAnchored: true})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if m.Start != 3 {
		t.Errorf("EOF anchored match start = %d, want 3 (the tail occurrence)", m.Start)
	}

	// The same anchor text also appears alone earlier: a backward search
	// over a single line must still land on the last one.
	m, err = Find(file, []string{"marker"}, Options{EOFAnchored: true})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if m.Start != 3 {
		t.Errorf("start = %d, want 3", m.Start)
	}
}

func TestFindDisambiguatorRestrictsRegion(t *testing.T) {
	file := []string{
		"func foo() {",
		"return 1",
		"}",
		"func bar() {",
		"return 1",
		"}",
	}

	m, err := Find(file, []string{"return 1"}, Options{Disambiguator: "func bar() {"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if m.Start != 4 {
		t.Errorf("start = %d, want 4 (after the disambiguator line)", m.Start)
	}
}

func TestFindDisambiguatorNotFoundFallsBack(t *testing.T) {
	file := []string{"only", "one", "here"}

	m, err := Find(file, []string{"one"}, Options{Disambiguator: "func gone() {"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if m.Start != 1 {
		t.Errorf("start = %d, want 1", m.Start)
	}
}

func TestFindAmbiguous(t *testing.T) {
	file := []string{"dup", "x", "dup", "y"}

	_, err := Find(file, []string{"dup"}, Options{})
	var ambiguous *AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	if ambiguous.Count != 2 {
		t.Errorf("count = %d, want 2", ambiguous.Count)
	}
}

func TestFindMismatch(t *testing.T) {
	_, err := Find([]string{"a", "b"}, []string{"never there"}, Options{})
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected MismatchError, got %v", err)
	}
}

func TestFindEmptyTarget(t *testing.T) {
	file := []string{"a", "b"}

	// Without an anchor there is no way to place a pure insertion.
	if _, err := Find(file, nil, Options{}); err == nil {
		t.Fatal("expected error for empty target without EOF anchor")
	}

	// EOF anchored pure insertions append at the end of the file.
	m, err := Find(file, nil, Options{EOFAnchored: true})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if m.Start != 2 {
		t.Errorf("start = %d, want 2", m.Start)
	}
}
