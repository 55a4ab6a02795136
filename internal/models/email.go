package models

// Виды писем, публикуемых в очередь отправки.
const (
	EmailKindVerification    = "verification"
	EmailKindPasswordReset   = "password_reset"
	EmailKindContentDisabled = "content_disabled"
)

// EmailJob представляет задание на отправку письма, публикуемое в RabbitMQ.
// Поля Username и Link заполняются в зависимости от вида письма.
type EmailJob struct {
	Kind     string `json:"kind"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Link     string `json:"link,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Body     string `json:"body,omitempty"`
}
