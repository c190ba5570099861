package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RewardDTO struct {
	RewardID    string `json:"reward_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CostPoints  int    `json:"cost_points"`
	Stock       int    `json:"stock"`
	Eligible    bool   `json:"eligible"`
}

type RewardListResponse struct {
	Status string      `json:"status"`
	Data   []RewardDTO `json:"data"`
}

type CreateRewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CostPoints  int    `json:"cost_points"`
	Stock       int    `json:"stock"`
}

type RewardResponse struct {
	Status string    `json:"status"`
	Data   RewardDTO `json:"data"`
}

type UpdateStockRequest struct {
	Stock int `json:"stock"`
}

type RedeemRequest struct {
	RewardID string `json:"reward_id"`
}

type ReceiptDTO struct {
	ReceiptID       string `json:"receipt_id"`
	RewardID        string `json:"reward_id"`
	RewardTitle     string `json:"reward_title"`
	UserID          string `json:"user_id"`
	CostPoints      int    `json:"cost_points"`
	RemainingPoints int    `json:"remaining_points"`
	RedeemedAt      string `json:"redeemed_at"`
}

type RedeemResponse struct {
	Status   string     `json:"status"`
	Replayed bool       `json:"replayed,omitempty"`
	Data     ReceiptDTO `json:"data"`
}

type ReceiptListResponse struct {
	Status string       `json:"status"`
	Data   []ReceiptDTO `json:"data"`
}

type ProgressResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserID            string  `json:"user_id"`
		Points            int     `json:"points"`
		Level             int     `json:"level"`
		CarbonSaved       float64 `json:"carbon_saved_kg"`
		BadgeCount        int     `json:"badge_count"`
		Redemptions       int     `json:"redemptions"`
		NextLevel         int     `json:"next_level,omitempty"`
		PointsToNextLevel int     `json:"points_to_next_level,omitempty"`
		AffordableRewards int     `json:"affordable_rewards"`
	} `json:"data"`
}
