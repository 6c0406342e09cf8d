package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amountRule(name string, threshold int64, severity string) Rule {
	return Rule{Name: name, Type: TypeAmount, Comparator: CmpGTE, Threshold: threshold, Severity: severity, IsActive: true}
}

func TestAmountThreshold(t *testing.T) {
	rules := []Rule{amountRule("large-transaction", 100000, SeverityHigh)}

	// 999.99 does not trip a >= 1000.00 rule.
	flags := EvaluateRules(rules, Event{UserID: 1, Amount: 99999}, Stats{})
	assert.Empty(t, flags)

	// Exactly at the threshold does.
	flags = EvaluateRules(rules, Event{UserID: 1, Amount: 100000}, Stats{})
	require.Len(t, flags, 1)
	assert.Equal(t, "large-transaction", flags[0].RuleName)
	assert.Equal(t, SeverityHigh, flags[0].Severity)
}

func TestRulesAreIndependent(t *testing.T) {
	rules := []Rule{
		amountRule("big", 50000, SeverityMedium),
		{Name: "busy-hour", Type: TypeFrequency, Comparator: CmpGTE, Threshold: 10, Severity: SeverityLow, IsActive: true},
		{Name: "day-velocity", Type: TypeVelocity, Comparator: CmpGTE, Threshold: 500000, Severity: SeverityCritical, IsActive: true},
	}

	// One event can breach all three at once.
	flags := EvaluateRules(rules, Event{UserID: 7, Amount: 60000}, Stats{HourCount: 12, DaySum: 600000})
	require.Len(t, flags, 3)

	names := []string{flags[0].RuleName, flags[1].RuleName, flags[2].RuleName}
	assert.ElementsMatch(t, []string{"big", "busy-hour", "day-velocity"}, names)
}

func TestInactiveRuleSkipped(t *testing.T) {
	r := amountRule("dormant", 1, SeverityCritical)
	r.IsActive = false
	flags := EvaluateRules([]Rule{r}, Event{Amount: 100000}, Stats{})
	assert.Empty(t, flags)
}

func TestComparators(t *testing.T) {
	assert.True(t, compare(10, 10, CmpGTE))
	assert.True(t, compare(11, 10, CmpGTE))
	assert.False(t, compare(9, 10, CmpGTE))

	assert.True(t, compare(10, 10, CmpLTE))
	assert.True(t, compare(9, 10, CmpLTE))
	assert.False(t, compare(11, 10, CmpLTE))

	assert.True(t, compare(10, 10, CmpEQ))
	assert.False(t, compare(9, 10, CmpEQ))

	assert.False(t, compare(10, 10, "BOGUS"), "unknown comparator never matches")
}

func TestUnknownRuleTypeIgnored(t *testing.T) {
	rules := []Rule{{Name: "weird", Type: "GEOFENCE", Comparator: CmpGTE, Threshold: 1, IsActive: true}}
	flags := EvaluateRules(rules, Event{Amount: 100000}, Stats{})
	assert.Empty(t, flags)
}

func TestFrequencyUsesCountNotAmount(t *testing.T) {
	rules := []Rule{{Name: "rapid-fire", Type: TypeFrequency, Comparator: CmpGTE, Threshold: 5, Severity: SeverityMedium, IsActive: true}}

	// A tiny amount still flags when the trailing-hour count is high.
	flags := EvaluateRules(rules, Event{Amount: 1}, Stats{HourCount: 5})
	assert.Len(t, flags, 1)

	// A huge amount alone does not.
	flags = EvaluateRules(rules, Event{Amount: 10000000}, Stats{HourCount: 4})
	assert.Empty(t, flags)
}
