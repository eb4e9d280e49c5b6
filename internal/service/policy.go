package service

import "github.com/streetsweepai/streetsweep-service/internal/domain"

// Outcome enumerates classification decisions.
type Outcome string

const (
	// OutcomeUnclassifiable means the classifier returned no usable
	// severity. Callers must count an error, not a skip.
	OutcomeUnclassifiable Outcome = "UNCLASSIFIABLE"
	OutcomeSkip           Outcome = "SKIP_LOW_SEVERITY"
	OutcomeCreate         Outcome = "CREATE"
)

// Decision is the result of mapping a severity through a creation policy.
type Decision struct {
	Outcome  Outcome
	Severity int
	Priority domain.TicketPriority
}

// CreationPolicy maps a severity score to a ticket-creation decision.
// Policies are injected into callers at construction time.
type CreationPolicy interface {
	Decide(severity int) Decision
}

// ThresholdPolicy creates a ticket whenever severity strictly exceeds
// the threshold. The scheduled pipeline runs with threshold 4.
type ThresholdPolicy struct {
	Threshold int
}

func (p ThresholdPolicy) Decide(severity int) Decision {
	if severity > p.Threshold {
		return Decision{Outcome: OutcomeCreate, Severity: severity}
	}
	return Decision{Outcome: OutcomeSkip, Severity: severity}
}

// TieredPolicy assigns a priority band: >=9 high, >=8 medium, >5 low,
// anything else is skipped.
type TieredPolicy struct{}

func (TieredPolicy) Decide(severity int) Decision {
	switch {
	case severity >= 9:
		return Decision{Outcome: OutcomeCreate, Severity: severity, Priority: domain.TicketPriorityHigh}
	case severity >= 8:
		return Decision{Outcome: OutcomeCreate, Severity: severity, Priority: domain.TicketPriorityMedium}
	case severity > 5:
		return Decision{Outcome: OutcomeCreate, Severity: severity, Priority: domain.TicketPriorityLow}
	default:
		return Decision{Outcome: OutcomeSkip, Severity: severity}
	}
}
