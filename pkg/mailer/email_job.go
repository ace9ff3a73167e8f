package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (with Data) or Subject plus Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // templates.Welcome, templates.PasswordChanged, templates.ProfileUpdated
	Data     map[string]any `json:"data,omitempty"`
}

// Job kinds set as the AMQP message type.
const (
	KindWelcome         = "account.welcome"
	KindPasswordChanged = "account.password_changed"
	KindProfileUpdated  = "account.profile_updated"
)
