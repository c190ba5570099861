package rules

// Snapshot is the persisted user state badge predicates evaluate against.
// Predicates must stay pure functions of these fields; there are no
// hidden counters.
type Snapshot struct {
	Points          int
	Level           int
	CarbonSaved     float64
	Posts           int
	Comments        int
	Reports         int
	ReportsVerified int
	Bills           int
}

// BadgeDefinition describes one milestone badge in the static catalog.
type BadgeDefinition struct {
	Key         string
	Label       string
	Description string
	Earned      func(Snapshot) bool
}

var badgeCatalog = []BadgeDefinition{
	{
		Key:         "first_post",
		Label:       "First Post",
		Description: "Share your first community post",
		Earned:      func(s Snapshot) bool { return s.Posts >= 1 },
	},
	{
		Key:         "community_voice",
		Label:       "Community Voice",
		Description: "Share ten community posts",
		Earned:      func(s Snapshot) bool { return s.Posts >= 10 },
	},
	{
		Key:         "first_report",
		Label:       "First Report",
		Description: "File your first environmental report",
		Earned:      func(s Snapshot) bool { return s.Reports >= 1 },
	},
	{
		Key:         "neighborhood_watch",
		Label:       "Neighborhood Watch",
		Description: "File twenty-five environmental reports",
		Earned:      func(s Snapshot) bool { return s.Reports >= 25 },
	},
	{
		Key:         "trusted_verifier",
		Label:       "Trusted Verifier",
		Description: "Verify ten reports filed by others",
		Earned:      func(s Snapshot) bool { return s.ReportsVerified >= 10 },
	},
	{
		Key:         "first_bill",
		Label:       "First Bill",
		Description: "Record your first utility bill",
		Earned:      func(s Snapshot) bool { return s.Bills >= 1 },
	},
	{
		Key:         "bill_historian",
		Label:       "Bill Historian",
		Description: "Record twelve utility bills",
		Earned:      func(s Snapshot) bool { return s.Bills >= 12 },
	},
	{
		Key:         "carbon_saver",
		Label:       "Carbon Saver",
		Description: "Save 100 kg of CO2e",
		Earned:      func(s Snapshot) bool { return s.CarbonSaved >= 100 },
	},
	{
		Key:         "carbon_champion",
		Label:       "Carbon Champion",
		Description: "Save 1000 kg of CO2e",
		Earned:      func(s Snapshot) bool { return s.CarbonSaved >= 1000 },
	},
	{
		Key:         "point_collector",
		Label:       "Point Collector",
		Description: "Accumulate 1000 points",
		Earned:      func(s Snapshot) bool { return s.Points >= 1000 },
	},
	{
		Key:         "level_five",
		Label:       "Level Five",
		Description: "Reach level 5",
		Earned:      func(s Snapshot) bool { return s.Level >= 5 },
	},
	{
		Key:         "level_ten",
		Label:       "Level Ten",
		Description: "Reach level 10",
		Earned:      func(s Snapshot) bool { return s.Level >= 10 },
	},
}

// BadgeCatalog returns a copy of the static badge catalog so callers can
// render it without mutating shared state.
func BadgeCatalog() []BadgeDefinition {
	out := make([]BadgeDefinition, len(badgeCatalog))
	copy(out, badgeCatalog)
	return out
}

// BadgeByKey resolves a catalog entry.
func BadgeByKey(key string) (BadgeDefinition, bool) {
	for _, def := range badgeCatalog {
		if def.Key == key {
			return def, true
		}
	}
	return BadgeDefinition{}, false
}

// EvaluateBadges returns the catalog keys newly earned by the snapshot,
// skipping badges already held. Re-evaluation after any state change is
// idempotent: held badges are never returned again.
func EvaluateBadges(held []string, snapshot Snapshot) []string {
	owned := make(map[string]struct{}, len(held))
	for _, key := range held {
		owned[key] = struct{}{}
	}
	var earned []string
	for _, def := range badgeCatalog {
		if _, ok := owned[def.Key]; ok {
			continue
		}
		if def.Earned(snapshot) {
			earned = append(earned, def.Key)
		}
	}
	return earned
}
