package notification

type RegisterTokenRequest struct {
	Token    string `json:"token" binding:"required,max=255"`
	Platform string `json:"platform" binding:"required,oneof=ios android"`
}

type PushTokenResponse struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
	IsActive bool   `json:"is_active"`
}

type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Data      Data   `json:"data"`
	PushSent  bool   `json:"push_sent"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}
