package templates

import (
	"time"
)

// Brand carries the product details shared by every e-mail.
type Brand struct {
	AppName    string
	SupportURL string
	LoginURL   string
}

type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithChanges(ch map[string]string) Option {
	return func(d *EmailData) { d.Changes = ch }
}

func NewBaseEmailData(b Brand, typ, name, username, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Username:       username,
		RecipientEmail: recipient,
		Type:           typ,
		AppName:        b.AppName,
		SupportURL:     b.SupportURL,
		LoginURL:       b.LoginURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(b Brand, name, username, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(b, Welcome, name, username, email, opts...))
}

func NewPasswordChangedData(b Brand, name, username, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(b, PasswordChanged, name, username, email, opts...))
}

func NewProfileUpdatedData(b Brand, name, username, email string, changes map[string]string, opts ...Option) map[string]any {
	opts = append([]Option{WithChanges(changes)}, opts...)
	return ToMap(NewBaseEmailData(b, ProfileUpdated, name, username, email, opts...))
}
