package rules

import "testing"

func TestParseActionKind(t *testing.T) {
	kind, ok := ParseActionKind(" Post_Created ")
	if !ok || kind != ActionPostCreated {
		t.Fatalf("expected post_created, got %q ok=%v", kind, ok)
	}
	if _, ok := ParseActionKind("login"); ok {
		t.Fatalf("expected login to be rejected")
	}
}

func TestRuleTablePointValues(t *testing.T) {
	cases := map[ActionKind]int{
		ActionPostCreated:    10,
		ActionCommentAdded:   5,
		ActionReportFiled:    20,
		ActionReportVerified: 5,
		ActionBillLogged:     0,
	}
	for kind, want := range cases {
		rule, ok := RuleFor(kind)
		if !ok {
			t.Fatalf("missing rule for %s", kind)
		}
		if rule.Points != want {
			t.Fatalf("expected %d points for %s, got %d", want, kind, rule.Points)
		}
	}
}

func TestBillPoints(t *testing.T) {
	if got := BillPoints(100, 80); got != 20 {
		t.Fatalf("expected 20 points for a 20%% reduction, got %d", got)
	}
	if got := BillPoints(100, 30); got != MaxBillPoints {
		t.Fatalf("expected cap of %d, got %d", MaxBillPoints, got)
	}
	if got := BillPoints(100, 120); got != 0 {
		t.Fatalf("expected 0 points for an increase, got %d", got)
	}
	if got := BillPoints(0, 50); got != 0 {
		t.Fatalf("expected 0 points without a baseline, got %d", got)
	}
}

func TestLevelForIsMonotonic(t *testing.T) {
	previous := 0
	for points := 0; points <= 25000; points += 50 {
		level := LevelFor(points)
		if level < previous {
			t.Fatalf("level dropped from %d to %d at %d points", previous, level, points)
		}
		previous = level
	}
	if LevelFor(-10) != 1 {
		t.Fatalf("expected negative totals to clamp to level 1")
	}
	if LevelFor(20000) != MaxLevel() {
		t.Fatalf("expected max level at the top threshold")
	}
}

func TestThresholdFor(t *testing.T) {
	if got := ThresholdFor(2); got != 100 {
		t.Fatalf("expected 100 points for level 2, got %d", got)
	}
	if got := ThresholdFor(0); got != -1 {
		t.Fatalf("expected -1 for an out-of-range level, got %d", got)
	}
}

func TestEvaluateBadgesSkipsHeld(t *testing.T) {
	snapshot := Snapshot{Posts: 1, Points: 10, Level: 1}
	earned := EvaluateBadges(nil, snapshot)
	if len(earned) != 1 || earned[0] != "first_post" {
		t.Fatalf("expected only first_post, got %v", earned)
	}
	if again := EvaluateBadges(earned, snapshot); len(again) != 0 {
		t.Fatalf("expected no badges on re-evaluation, got %v", again)
	}
}

func TestEvaluateBadgesThresholds(t *testing.T) {
	snapshot := Snapshot{
		Points:      1200,
		Level:       LevelFor(1200),
		CarbonSaved: 150,
		Bills:       12,
	}
	earned := EvaluateBadges(nil, snapshot)
	want := map[string]bool{
		"first_bill":      true,
		"bill_historian":  true,
		"carbon_saver":    true,
		"point_collector": true,
		"level_five":      true,
	}
	got := make(map[string]bool, len(earned))
	for _, key := range earned {
		got[key] = true
	}
	for key := range want {
		if !got[key] {
			t.Fatalf("expected badge %s in %v", key, earned)
		}
	}
	if got["carbon_champion"] || got["level_ten"] {
		t.Fatalf("unexpected high-tier badge in %v", earned)
	}
}
