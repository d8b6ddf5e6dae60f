package retriever

import (
	"strings"
	"testing"
)

func TestExpandOriginalFirst(t *testing.T) {
	e := NewQueryExpander()
	variants := e.Expand("What is the total cost?")
	if len(variants) == 0 || variants[0] != "What is the total cost?" {
		t.Fatalf("original query must be the first variant, got %v", variants)
	}
}

func TestExpandSubstitutesSynonyms(t *testing.T) {
	e := NewQueryExpander()
	variants := e.Expand("what is the cost")

	if len(variants) < 2 {
		t.Fatalf("expected synonym variants, got %v", variants)
	}
	found := false
	for _, v := range variants[1:] {
		if strings.Contains(v, "price") || strings.Contains(v, "expense") {
			found = true
		}
		if strings.Contains(v, "cost") {
			t.Errorf("variant %q still contains the original term", v)
		}
	}
	if !found {
		t.Errorf("no variant used a synonym: %v", variants)
	}
}

func TestExpandCapsVariants(t *testing.T) {
	e := NewQueryExpander()
	variants := e.Expand("cost revenue profit increase decrease result method")
	if len(variants) > maxVariants {
		t.Errorf("got %d variants, cap is %d", len(variants), maxVariants)
	}
}

func TestExpandNoSynonymTerms(t *testing.T) {
	e := NewQueryExpander()
	variants := e.Expand("alpha beta gamma")
	if len(variants) != 1 {
		t.Errorf("expected only the original, got %v", variants)
	}
}

func TestExpandDeterministicOrder(t *testing.T) {
	e := NewQueryExpander()
	query := "the cost and revenue result"

	// Matched terms substitute in sorted order: cost, result, revenue.
	want := []string{
		"the cost and revenue result",
		"the price and revenue result",
		"the expense and revenue result",
		"the cost and revenue outcome",
	}
	for run := 0; run < 5; run++ {
		got := e.Expand(query)
		if len(got) != len(want) {
			t.Fatalf("run %d: got %v, want %v", run, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("run %d: variant %d is %q, want %q", run, i, got[i], want[i])
			}
		}
	}
}

func TestExpandWholeWordsOnly(t *testing.T) {
	e := NewQueryExpander()
	// "costume" contains "cost" but is not the word "cost".
	variants := e.Expand("describe the costume")
	if len(variants) != 1 {
		t.Errorf("substring match expanded: %v", variants)
	}
}
