package assistant

import (
	"regexp"
	"strings"
)

// Intent is the closed set of things the assistant can do. Every query maps
// to exactly one of these; unrecognized input falls back to IntentHelp.
type Intent string

const (
	IntentBalance    Intent = "BALANCE"
	IntentSpending   Intent = "SPENDING"
	IntentIncome     Intent = "INCOME"
	IntentExpense    Intent = "EXPENSE"
	IntentBudget     Intent = "BUDGET"
	IntentInvestment Intent = "INVESTMENT"
	IntentGoal       Intent = "GOAL"
	IntentTransfer   Intent = "TRANSFER"
	IntentSearch     Intent = "SEARCH"
	IntentTip        Intent = "TIP"
	IntentInsight    Intent = "INSIGHT"
	IntentHelp       Intent = "HELP"
)

// The table is ordered: first match wins, so the more specific patterns sit
// above the generic ones.
var patterns = []struct {
	re     *regexp.Regexp
	intent Intent
}{
	{regexp.MustCompile(`top.*(expense|spending)`), IntentExpense},
	{regexp.MustCompile(`(food|grocery|transport|shopping|bills).*(expense|spending|spent)`), IntentExpense},
	{regexp.MustCompile(`(last|this) month.*(expense|spending|income)`), IntentSpending},
	{regexp.MustCompile(`(show|what|how much).*(balance|money|have)`), IntentBalance},
	{regexp.MustCompile(`(show|get|list).*(expense|spending|spent)`), IntentExpense},
	{regexp.MustCompile(`(show|get|list).*(income|earned|salary)`), IntentIncome},
	{regexp.MustCompile(`(show|get).*(budget|limit)`), IntentBudget},
	{regexp.MustCompile(`(show|get|list).*(investment|portfolio|stock|crypto)`), IntentInvestment},
	{regexp.MustCompile(`(show|get|list).*(goal|target|saving for)`), IntentGoal},
	{regexp.MustCompile(`(transfer|send|pay).*(money|rs|inr|[0-9]+)`), IntentTransfer},
	{regexp.MustCompile(`(find|search|show).*(transaction)`), IntentSearch},
	{regexp.MustCompile(`(tip|advice|suggest|recommend)`), IntentTip},
	{regexp.MustCompile(`(insight|analysis|analyze)`), IntentInsight},
	{regexp.MustCompile(`(help|what can you do|commands)`), IntentHelp},
}

// Classify maps a raw query to an intent. Matching is case-insensitive and
// first-match-wins over the ordered table.
func Classify(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return IntentHelp
	}
	for _, p := range patterns {
		if p.re.MatchString(q) {
			return p.intent
		}
	}
	return IntentHelp
}

var topNRe = regexp.MustCompile(`top\s*([0-9]+)`)

// topN extracts "top 5" style counts from a query, defaulting when absent.
func topN(query string, def int) int {
	m := topNRe.FindStringSubmatch(strings.ToLower(query))
	if m == nil {
		return def
	}
	n := 0
	for _, ch := range m[1] {
		n = n*10 + int(ch-'0')
	}
	if n <= 0 || n > 20 {
		return def
	}
	return n
}
