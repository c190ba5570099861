package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RecordActionRequest struct {
	UserID     string `json:"user_id"`
	ActionKind string `json:"action_kind"`
	SourceID   string `json:"source_id"`
}

type StandingDTO struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Points      int      `json:"points"`
	Level       int      `json:"level"`
	CarbonSaved float64  `json:"carbon_saved_kg"`
	Badges      []string `json:"badges"`
}

type RecordActionResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Data      struct {
		StandingDTO
		PointsDelta int      `json:"points_delta"`
		NewBadges   []string `json:"new_badges"`
	} `json:"data"`
}

type RecordBillRequest struct {
	UserID      string  `json:"user_id"`
	Utility     string  `json:"utility"`
	Period      string  `json:"period"`
	Consumption float64 `json:"consumption"`
	Cost        float64 `json:"cost,omitempty"`
	EntryID     string  `json:"entry_id,omitempty"`
}

type BillDTO struct {
	BillID      string  `json:"bill_id"`
	UserID      string  `json:"user_id"`
	Utility     string  `json:"utility"`
	Period      string  `json:"period"`
	Consumption float64 `json:"consumption"`
	Unit        string  `json:"unit"`
	Cost        float64 `json:"cost,omitempty"`
	CarbonDelta float64 `json:"carbon_delta_kg"`
	CreatedAt   string  `json:"created_at"`
}

type RecordBillResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Data      struct {
		Bill        BillDTO `json:"bill"`
		CarbonDelta float64 `json:"carbon_delta_kg"`
		PointsDelta int     `json:"points_delta"`
		StandingDTO
		NewBadges []string `json:"new_badges"`
	} `json:"data"`
}

type StandingResponse struct {
	Status string      `json:"status"`
	Data   StandingDTO `json:"data"`
}

type LeaderboardEntryDTO struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Points      int     `json:"points"`
	Level       int     `json:"level"`
	CarbonSaved float64 `json:"carbon_saved_kg"`
	BadgeCount  int     `json:"badge_count"`
}

type LeaderboardResponse struct {
	Status string                `json:"status"`
	Metric string                `json:"metric"`
	Data   []LeaderboardEntryDTO `json:"data"`
}

type BillListResponse struct {
	Status string    `json:"status"`
	Data   []BillDTO `json:"data"`
}

type UtilityBreakdownDTO struct {
	Utility     string  `json:"utility"`
	Unit        string  `json:"unit"`
	CarbonSaved float64 `json:"carbon_saved_kg"`
	BillCount   int     `json:"bill_count"`
}

type FootprintResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserID           string                `json:"user_id"`
		TotalCarbonSaved float64               `json:"total_carbon_saved_kg"`
		Breakdown        []UtilityBreakdownDTO `json:"breakdown"`
		Impacts          struct {
			TreesPlanted           float64 `json:"trees_planted"`
			CarMilesAvoided        float64 `json:"car_miles_avoided"`
			PlasticBottlesRecycled float64 `json:"plastic_bottles_recycled"`
			LEDBulbHours           float64 `json:"led_bulb_hours"`
		} `json:"impacts"`
	} `json:"data"`
}
