package attendance

import "math"

// Candidate is one enrolled template offered to the matcher.
type Candidate struct {
	UserID    int64
	Embedding []float32
}

// EuclideanDistance computes the Euclidean distance between two embeddings.
// Returns +Inf for mismatched or empty input so such candidates never match.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Match runs a 1-nearest-neighbor search with a reject option: the candidate
// with minimum distance to the probe wins, and the match is accepted only
// when that distance is within the threshold. Ties resolve to the first
// candidate seen, so callers should keep the pool in a stable order.
// An empty pool always rejects.
func Match(probe []float32, candidates []Candidate, threshold float64) MatchResult {
	if len(candidates) == 0 {
		return MatchResult{}
	}

	best := 0
	bestDist := EuclideanDistance(probe, candidates[0].Embedding)
	for i := 1; i < len(candidates); i++ {
		if d := EuclideanDistance(probe, candidates[i].Embedding); d < bestDist {
			best = i
			bestDist = d
		}
	}

	res := MatchResult{
		Distance:    bestDist,
		HasDistance: true,
	}
	if bestDist <= threshold {
		res.OK = true
		res.UserID = candidates[best].UserID
	}
	return res
}
