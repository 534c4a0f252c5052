package attendance

import (
	"math"
	"testing"
)

func TestEuclideanDistance_Identical(t *testing.T) {
	a := []float32{0.1, 0.2, 0.3}
	if d := EuclideanDistance(a, a); d != 0 {
		t.Errorf("expected distance 0 for identical embeddings, got %f", d)
	}
}

func TestEuclideanDistance_KnownValue(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{3, 4, 0}
	if d := EuclideanDistance(a, b); math.Abs(d-5) > 1e-9 {
		t.Errorf("expected distance 5, got %f", d)
	}
}

func TestEuclideanDistance_DimensionMismatch(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{1, 2}
	if d := EuclideanDistance(a, b); !math.IsInf(d, 1) {
		t.Errorf("expected +Inf for mismatched dimensions, got %f", d)
	}
}

func TestEuclideanDistance_Empty(t *testing.T) {
	if d := EuclideanDistance(nil, nil); !math.IsInf(d, 1) {
		t.Errorf("expected +Inf for empty embeddings, got %f", d)
	}
}

func TestMatch_AcceptsWithinThreshold(t *testing.T) {
	candidates := []Candidate{
		{UserID: 1, Embedding: []float32{1, 0, 0}},
		{UserID: 2, Embedding: []float32{0, 1, 0}},
	}
	probe := []float32{0.9, 0, 0}

	result := Match(probe, candidates, 0.5)
	if !result.OK {
		t.Fatal("expected a match within threshold")
	}
	if result.UserID != 1 {
		t.Errorf("expected user 1, got %d", result.UserID)
	}
	if math.Abs(result.Distance-0.1) > 1e-6 {
		t.Errorf("expected distance 0.1, got %f", result.Distance)
	}
}

func TestMatch_RejectsBeyondThreshold(t *testing.T) {
	candidates := []Candidate{
		{UserID: 1, Embedding: []float32{1, 0, 0}},
	}
	probe := []float32{0, 1, 0}

	result := Match(probe, candidates, 0.5)
	if result.OK {
		t.Error("expected rejection beyond threshold")
	}
	if !result.HasDistance {
		t.Error("expected a diagnostic distance even on rejection")
	}
	if result.UserID != 0 {
		t.Errorf("expected no user on rejection, got %d", result.UserID)
	}
}

func TestMatch_ExactThresholdAccepts(t *testing.T) {
	candidates := []Candidate{
		{UserID: 7, Embedding: []float32{0.5, 0, 0}},
	}
	probe := []float32{0, 0, 0}

	result := Match(probe, candidates, 0.5)
	if !result.OK {
		t.Error("expected a distance exactly at the threshold to be accepted")
	}
}

func TestMatch_PicksNearest(t *testing.T) {
	candidates := []Candidate{
		{UserID: 1, Embedding: []float32{0.4, 0, 0}},
		{UserID: 2, Embedding: []float32{0.1, 0, 0}},
		{UserID: 3, Embedding: []float32{0.3, 0, 0}},
	}
	probe := []float32{0, 0, 0}

	result := Match(probe, candidates, 0.5)
	if !result.OK || result.UserID != 2 {
		t.Errorf("expected nearest candidate (user 2), got user %d ok=%v", result.UserID, result.OK)
	}
}

func TestMatch_TieResolvesToFirst(t *testing.T) {
	candidates := []Candidate{
		{UserID: 5, Embedding: []float32{0.2, 0, 0}},
		{UserID: 6, Embedding: []float32{0.2, 0, 0}},
	}
	probe := []float32{0, 0, 0}

	result := Match(probe, candidates, 0.5)
	if result.UserID != 5 {
		t.Errorf("expected tie to resolve to the first candidate, got user %d", result.UserID)
	}
}

func TestMatch_EmptyPool(t *testing.T) {
	result := Match([]float32{1, 2, 3}, nil, 0.5)
	if result.OK {
		t.Error("expected no match against an empty pool")
	}
	if result.HasDistance {
		t.Error("expected no distance against an empty pool")
	}
}

func TestMatch_MismatchedCandidateNeverWins(t *testing.T) {
	candidates := []Candidate{
		{UserID: 1, Embedding: []float32{0.1, 0}}, // wrong dimension
		{UserID: 2, Embedding: []float32{0.3, 0, 0}},
	}
	probe := []float32{0, 0, 0}

	result := Match(probe, candidates, 0.5)
	if !result.OK || result.UserID != 2 {
		t.Errorf("expected the well-formed candidate to win, got user %d ok=%v", result.UserID, result.OK)
	}
}
