package rules

import (
	"math"
	"strings"
)

// ActionKind is the closed set of scorable user actions.
type ActionKind string

const (
	ActionPostCreated    ActionKind = "post_created"
	ActionCommentAdded   ActionKind = "comment_added"
	ActionReportFiled    ActionKind = "report_filed"
	ActionReportVerified ActionKind = "report_verified"
	ActionBillLogged     ActionKind = "bill_logged"
)

// MaxBillPoints caps the award for a single bill entry.
const MaxBillPoints = 50

// Rule maps an action kind to its fixed point value. Bill awards are
// formula-driven and use BillPoints instead of Points.
type Rule struct {
	Kind   ActionKind
	Points int
}

var ruleTable = map[ActionKind]Rule{
	ActionPostCreated:    {Kind: ActionPostCreated, Points: 10},
	ActionCommentAdded:   {Kind: ActionCommentAdded, Points: 5},
	ActionReportFiled:    {Kind: ActionReportFiled, Points: 20},
	ActionReportVerified: {Kind: ActionReportVerified, Points: 5},
	ActionBillLogged:     {Kind: ActionBillLogged, Points: 0},
}

// ParseActionKind normalizes a wire value into a known action kind.
func ParseActionKind(raw string) (ActionKind, bool) {
	kind := ActionKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := ruleTable[kind]; !ok {
		return "", false
	}
	return kind, true
}

// RuleFor resolves the scoring rule for a kind. Unknown kinds report false
// so callers can reject the action before any mutation.
func RuleFor(kind ActionKind) (Rule, bool) {
	rule, ok := ruleTable[kind]
	return rule, ok
}

// BillPoints converts a consumption reduction into award points: the
// percentage reduction rounded to the nearest point, capped at
// MaxBillPoints. Increases and first readings award nothing; no bill
// entry ever subtracts points.
func BillPoints(previous, current float64) int {
	if previous <= 0 || current < 0 || current >= previous {
		return 0
	}
	pct := (previous - current) / previous * 100
	points := int(math.Round(pct))
	if points < 0 {
		return 0
	}
	if points > MaxBillPoints {
		return MaxBillPoints
	}
	return points
}
