package leads

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"leadchat/pkg"
)

// Signal weights
const (
	budgetTopPoints    = 40
	budgetMidPoints    = 30
	budgetEntryPoints  = 20
	urgentPoints       = 30
	nextMonthPoints    = 20
	nextQuarterPoints  = 10
	ownerPoints        = 25
	managerPoints      = 15
	painPoints         = 20
	engagementPoints   = 5
	engagementMinChars = 100
	maxScore           = 100

	cueWindow = 30
)

var (
	// $50k, $ 12,000, $1.5m
	dollarAmount = regexp.MustCompile(`\$\s?(\d[\d,]*(?:\.\d+)?)\s?(k|thousand|m|million)?\b`)
	// 30000 usd, 25k dollars, 2 million dollars
	currencyAmount = regexp.MustCompile(`\b(\d[\d,]*(?:\.\d+)?)\s?(k|thousand|m|million)?\s?(?:usd|dollars)\b`)
	// 50k, 1.5m, 20 thousand, 20,000; counted only when budgetCue sits in the same clause
	looseAmount = regexp.MustCompile(`\b(\d[\d,]*(?:\.\d+)?)\s?(k|thousand|m|million)?\b`)
	budgetCue   = regexp.MustCompile(`\b(budget|budgeted|spend|spending|invest|investment|allocate|allocated|set aside|afford|pay)\b`)

	sixFigures  = regexp.MustCompile(`\bsix[- ]figures?\b`)
	fiveFigures = regexp.MustCompile(`\bfive[- ]figures?\b`)

	urgentTimeline      = regexp.MustCompile(`\b(asap|urgent|urgently|immediately|right away|as soon as possible|this week)\b`)
	nextMonthTimeline   = regexp.MustCompile(`\b(next month|this month|within (a|one|1) month|in (a few|a couple of|two|three|2|3) weeks|within (a few|two|three|2|3) weeks|30 days)\b`)
	nextQuarterTimeline = regexp.MustCompile(`\b(next quarter|this quarter|within (a few|two|three|six|2|3|6) months|in (a few|a couple of|two|three|2|3) months|90 days|q[1-4])\b`)

	ownerAuthority   = regexp.MustCompile(`\b(owner|own the (business|company)|founder|co-?founder|ceo|cto|cfo|coo|proprietor|managing partner)\b`)
	managerAuthority = regexp.MustCompile(`\b(manager|director|head of|vp|vice president|team lead|lead the team)\b`)

	painPhrases = regexp.MustCompile(`\b(losing|lost (customers|clients|revenue|money|deals)|critical|struggling|struggle|bottleneck|frustrated|frustrating|overwhelmed|wasting|falling behind|drowning|broken|churn)\b`)

	exploratoryContext = regexp.MustCompile(`explore|learn`)
)

// Qualifier scores a visitor message for sales readiness. It is a pure function
// of its inputs and safe for concurrent use.
type Qualifier struct{}

// NewQualifier creates a new lead qualifier
func NewQualifier() *Qualifier {
	return &Qualifier{}
}

// Score evaluates message for budget, timeline, authority, pain and engagement signals.
// conversationContext is only consulted for the exploratory entry-tier recommendation.
func (q *Qualifier) Score(message, conversationContext string) pkg.Qualification {
	text := strings.ToLower(message)
	result := pkg.Qualification{}
	score := 0

	switch budget := detectBudget(text); budget {
	case pkg.Budget50kPlus:
		score += budgetTopPoints
		result.BudgetRange = budget
	case pkg.Budget15kTo50k:
		score += budgetMidPoints
		result.BudgetRange = budget
	case pkg.Budget5kTo15k:
		score += budgetEntryPoints
		result.BudgetRange = budget
	}

	switch {
	case urgentTimeline.MatchString(text):
		score += urgentPoints
		result.Timeline = pkg.TimelineUrgent
	case nextMonthTimeline.MatchString(text):
		score += nextMonthPoints
		result.Timeline = pkg.TimelineNextMonth
	case nextQuarterTimeline.MatchString(text):
		score += nextQuarterPoints
		result.Timeline = pkg.TimelineNextQuarter
	}

	switch {
	case ownerAuthority.MatchString(text):
		score += ownerPoints
	case managerAuthority.MatchString(text):
		score += managerPoints
	}

	if painPhrases.MatchString(text) {
		score += painPoints
		result.PainPoints = append(result.PainPoints, pkg.PainHighUrgency)
	}

	if utf8.RuneCountInString(message) > engagementMinChars {
		score += engagementPoints
	}
	if strings.Contains(message, "?") {
		score += engagementPoints
	}

	result.Score = min(score, maxScore)

	switch {
	case result.BudgetRange == pkg.Budget50kPlus || result.Timeline == pkg.TimelineUrgent:
		result.RecommendedService = pkg.ServiceTransformation
	case result.BudgetRange == pkg.Budget15kTo50k:
		result.RecommendedService = pkg.ServiceImplementation
	case exploratoryContext.MatchString(strings.ToLower(conversationContext)):
		result.RecommendedService = pkg.ServiceStrategySession
	}

	return result
}

// detectBudget returns the largest budget bucket mentioned in text
func detectBudget(text string) pkg.BudgetRange {
	if sixFigures.MatchString(text) {
		return pkg.Budget50kPlus
	}

	amount := largestAmount(text)
	switch {
	case amount >= 50_000:
		return pkg.Budget50kPlus
	case amount >= 15_000:
		return pkg.Budget15kTo50k
	case amount >= 5_000:
		return pkg.Budget5kTo15k
	}

	if fiveFigures.MatchString(text) {
		return pkg.Budget15kTo50k
	}
	return ""
}

func largestAmount(text string) float64 {
	var largest float64
	consider := func(digits, unit string) {
		if amount := parseAmount(digits, unit); amount > largest {
			largest = amount
		}
	}

	for _, pattern := range []*regexp.Regexp{dollarAmount, currencyAmount} {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			consider(match[1], match[2])
		}
	}

	// "2 million users" or "a 401k plan" are not budgets
	for _, idx := range looseAmount.FindAllStringSubmatchIndex(text, -1) {
		if !budgetCue.MatchString(clauseAround(text, idx[0], idx[1])) {
			continue
		}
		unit := ""
		if idx[4] >= 0 {
			unit = text[idx[4]:idx[5]]
		}
		consider(text[idx[2]:idx[3]], unit)
	}
	return largest
}

// clauseAround returns up to cueWindow bytes either side of text[start:end],
// stopping at the nearest clause punctuation
func clauseAround(text string, start, end int) string {
	before := text[max(0, start-cueWindow):start]
	if i := strings.LastIndexAny(before, ".,;!?"); i >= 0 {
		before = before[i+1:]
	}
	after := text[end:min(len(text), end+cueWindow)]
	if i := strings.IndexAny(after, ".,;!?"); i >= 0 {
		after = after[:i]
	}
	return before + " " + after
}

func parseAmount(digits, unit string) float64 {
	value, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0
	}
	switch unit {
	case "k", "thousand":
		value *= 1_000
	case "m", "million":
		value *= 1_000_000
	}
	return value
}
