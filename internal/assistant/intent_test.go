package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"show my balance", IntentBalance},
		{"how much money do I have", IntentBalance},
		{"list my expenses", IntentExpense},
		{"show income this month", IntentIncome},
		{"show my budget", IntentBudget},
		{"list investments", IntentInvestment},
		{"show my portfolio", IntentInvestment},
		{"list my goals", IntentGoal},
		{"send money to raj", IntentTransfer},
		{"pay 500", IntentTransfer},
		{"find a transaction", IntentSearch},
		{"give me a tip", IntentTip},
		{"any advice", IntentTip},
		{"analyze my spending", IntentInsight},
		{"help", IntentHelp},
		{"what can you do", IntentHelp},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.query), "query: %q", tc.query)
	}
}

func TestClassifyOrderedSpecificBeforeGeneric(t *testing.T) {
	// "top ... expenses" must win over the generic show/list expense rule.
	assert.Equal(t, IntentExpense, Classify("top 3 expenses"))
	// Category-prefixed spending also resolves to expense.
	assert.Equal(t, IntentExpense, Classify("food spending this week"))
	// "this month ... spending" is the month summary, not the expense list.
	assert.Equal(t, IntentSpending, Classify("this month spending summary"))
}

func TestClassifyCaseInsensitive(t *testing.T) {
	assert.Equal(t, IntentBalance, Classify("SHOW MY BALANCE"))
}

func TestClassifyFallback(t *testing.T) {
	assert.Equal(t, IntentHelp, Classify(""))
	assert.Equal(t, IntentHelp, Classify("sing me a song"))
}

func TestTopN(t *testing.T) {
	assert.Equal(t, 3, topN("top 3 expenses", 5))
	assert.Equal(t, 5, topN("top expenses", 5))
	assert.Equal(t, 5, topN("top 999 expenses", 5), "absurd counts fall back to the default")
}
