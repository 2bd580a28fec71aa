package models

// Candidate is one ranked assignee option produced by the external ranking
// service. Scores are never recomputed locally.
type Candidate struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	WorkloadCount int     `json:"workload_count"`
	ScoreDetail   float64 `json:"score_detail"`
}

// AssignmentSuggestion is the ranked answer for one request.
type AssignmentSuggestion struct {
	TopRecommendation *Candidate  `json:"top_recommendation,omitempty"`
	RankedCandidates  []Candidate `json:"ranked_candidates"`
}

// Empty returns the degraded suggestion used when the ranking service fails.
func (AssignmentSuggestion) Empty() AssignmentSuggestion {
	return AssignmentSuggestion{RankedCandidates: []Candidate{}}
}
