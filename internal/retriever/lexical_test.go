package retriever

import (
	"math"
	"testing"
)

func TestLexicalScoreFullOverlap(t *testing.T) {
	score := LexicalScore([]string{"alpha"}, []string{"alpha"})
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("single matching term score %f, want 1.0", score)
	}
}

func TestLexicalScoreOrdering(t *testing.T) {
	query := []string{"contract", "payment"}

	full := LexicalScore(query, []string{"contract", "payment", "terms"})
	partial := LexicalScore(query, []string{"contract", "delivery", "terms"})
	none := LexicalScore(query, []string{"delivery", "schedule", "terms"})

	if !(full > partial && partial > none) {
		t.Errorf("overlap ordering violated: full=%f partial=%f none=%f", full, partial, none)
	}
	if none != 0 {
		t.Errorf("no-overlap score %f, want 0", none)
	}
}

func TestLexicalScoreFrequencyBonus(t *testing.T) {
	query := []string{"alpha"}
	once := LexicalScore(query, []string{"alpha", "beta", "gamma"})
	twice := LexicalScore(query, []string{"alpha", "alpha", "beta"})
	if twice <= once {
		t.Errorf("repeated term should score higher: once=%f twice=%f", once, twice)
	}
}

func TestLexicalScoreBounds(t *testing.T) {
	cases := [][2][]string{
		{{"alpha"}, {"alpha", "alpha", "alpha", "alpha"}},
		{{"alpha", "beta"}, {"alpha"}},
		{nil, {"alpha"}},
		{{"alpha"}, nil},
	}
	for _, c := range cases {
		score := LexicalScore(c[0], c[1])
		if score < 0 || score > 1 {
			t.Errorf("score %f out of [0,1] for %v vs %v", score, c[0], c[1])
		}
	}
}

func TestJaccardSimilarity(t *testing.T) {
	cases := []struct {
		a, b []string
		want float64
	}{
		{[]string{"a", "b"}, []string{"a", "b"}, 1.0},
		{[]string{"a", "b"}, []string{"c", "d"}, 0.0},
		{nil, nil, 1.0},
		{[]string{"a"}, nil, 0.0},
		{[]string{"a", "b", "c"}, []string{"b", "c", "d"}, 0.5},
	}
	for _, c := range cases {
		got := JaccardSimilarity(c.a, c.b)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("jaccard(%v, %v) = %f, want %f", c.a, c.b, got, c.want)
		}
	}
}
