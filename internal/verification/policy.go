package verification

import "errors"

// Outcome is a decision of the registration policy.
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReview  Outcome = "review"
	OutcomeReject  Outcome = "reject"
)

// Policy is the confidence threshold table. Registration and login carry
// distinct thresholds; the compare floor is the comparison-time minimum below
// which the external service reports no match at all.
type Policy struct {
	AutoApprove  float64
	ManualReview float64
	Login        float64
	CompareFloor float64
}

// DefaultPolicy returns the production threshold table.
func DefaultPolicy() Policy {
	return Policy{
		AutoApprove:  70,
		ManualReview: 50,
		Login:        60,
		CompareFloor: 50,
	}
}

// Validate rejects tables that would break outcome monotonicity.
func (p Policy) Validate() error {
	if p.ManualReview <= 0 || p.AutoApprove <= 0 || p.Login <= 0 {
		return errors.New("policy: thresholds must be positive")
	}
	if p.ManualReview >= p.AutoApprove {
		return errors.New("policy: manual review threshold must be below auto approve")
	}
	if p.CompareFloor > p.ManualReview {
		return errors.New("policy: compare floor must not exceed manual review threshold")
	}
	return nil
}

// Evaluate maps a registration confidence score to an outcome.
func (p Policy) Evaluate(confidence float64) Outcome {
	switch {
	case confidence >= p.AutoApprove:
		return OutcomeApprove
	case confidence >= p.ManualReview:
		return OutcomeReview
	default:
		return OutcomeReject
	}
}

// LoginAuthenticated reports whether a login search confidence clears the
// login threshold.
func (p Policy) LoginAuthenticated(confidence float64) bool {
	return confidence >= p.Login
}
