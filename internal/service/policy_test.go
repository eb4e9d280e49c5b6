package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
)

func TestThresholdPolicyStrictlyExceeds(t *testing.T) {
	policy := ThresholdPolicy{Threshold: 4}

	cases := []struct {
		severity int
		want     Outcome
	}{
		{1, OutcomeSkip},
		{3, OutcomeSkip},
		{4, OutcomeSkip},
		{5, OutcomeCreate},
		{10, OutcomeCreate},
	}
	for _, tc := range cases {
		decision := policy.Decide(tc.severity)
		assert.Equal(t, tc.want, decision.Outcome, "severity %d", tc.severity)
		assert.Equal(t, tc.severity, decision.Severity)
	}
}

func TestTieredPolicyBands(t *testing.T) {
	policy := TieredPolicy{}

	cases := []struct {
		severity int
		outcome  Outcome
		priority domain.TicketPriority
	}{
		{10, OutcomeCreate, domain.TicketPriorityHigh},
		{9, OutcomeCreate, domain.TicketPriorityHigh},
		{8, OutcomeCreate, domain.TicketPriorityMedium},
		{7, OutcomeCreate, domain.TicketPriorityLow},
		{6, OutcomeCreate, domain.TicketPriorityLow},
		{5, OutcomeSkip, ""},
		{1, OutcomeSkip, ""},
	}
	for _, tc := range cases {
		decision := policy.Decide(tc.severity)
		assert.Equal(t, tc.outcome, decision.Outcome, "severity %d", tc.severity)
		assert.Equal(t, tc.priority, decision.Priority, "severity %d", tc.severity)
	}
}
