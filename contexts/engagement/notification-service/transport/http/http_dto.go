package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type NotificationDTO struct {
	NotificationID string `json:"notification_id"`
	Title          string `json:"title"`
	Message        string `json:"message,omitempty"`
	Kind           string `json:"kind,omitempty"`
	Read           bool   `json:"read"`
	CreatedAt      string `json:"created_at"`
}

type NotificationListResponse struct {
	Status string            `json:"status"`
	Data   []NotificationDTO `json:"data"`
}

type NotificationResponse struct {
	Status string          `json:"status"`
	Data   NotificationDTO `json:"data"`
}

type MarkAllReadResponse struct {
	Status string `json:"status"`
	Data   struct {
		Marked int `json:"marked"`
	} `json:"data"`
}
