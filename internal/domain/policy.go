package domain

// Review decision aggregation. Pure functions, no I/O; callers apply the
// result inside the same transaction that persists the mutation.

// AverageScore returns the mean score over complete, scored review entries.
// Returns nil when no such entry exists.
func AverageScore(reviews []ReviewEntry) *float64 {
	var sum float64
	var n int
	for _, r := range reviews {
		if r.IsComplete && r.Score != nil {
			sum += *r.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// NextStatus maps a single incoming reviewer decision to the abstract's next
// global status. The policy is last writer wins: the most recent decision
// overrides the global status outright, with no quorum across reviewers. An
// undecided decision leaves the status untouched, as does a decision that
// matches the current status.
func NextStatus(current AbstractStatus, decision ReviewDecision) AbstractStatus {
	switch decision {
	case DecisionRevise:
		if current != StatusRevisionRequested {
			return StatusRevisionRequested
		}
	case DecisionAccept:
		if current != StatusApproved {
			return StatusApproved
		}
	case DecisionReject:
		if current != StatusRejected {
			return StatusRejected
		}
	}
	return current
}
