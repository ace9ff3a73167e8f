package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData is the data every account template renders from.
type EmailData struct {
	Name           string `json:"Name"`
	Username       string `json:"Username"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	AppName    string `json:"AppName"`
	SupportURL string `json:"SupportURL"`
	LoginURL   string `json:"LoginURL"`

	Time    string            `json:"Time"`
	TimeAt  time.Time         `json:"TimeAt"`
	Changes map[string]string `json:"Changes"`
}

// ToMap flattens d into the shape EmailJob.Data carries over the queue.
func ToMap(d EmailData) map[string]any {
	b, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	m := make(map[string]any)
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// fallback backs the "default" pipe: {{ .Name | default "there" }}.
func fallback(def, value any) any {
	if value == nil {
		return def
	}
	if str, ok := value.(string); ok {
		if strings.TrimSpace(str) == "" {
			return def
		}
		return str
	}
	if rv := reflect.ValueOf(value); rv.IsZero() {
		return def
	}
	return value
}

// Template names. Each has <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
const (
	Welcome         = "welcome"
	PasswordChanged = "password_changed"
	ProfileUpdated  = "profile_updated"
)

var (
	textSet = texttpl.Must(texttpl.New("").Funcs(texttpl.FuncMap{"default": fallback}).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl"))
	htmlSet = htmpl.Must(htmpl.New("").Funcs(htmpl.FuncMap{"default": fallback}).ParseFS(FS, "*.html.tmpl"))
)

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func execute(set executor, file string, data any) (string, error) {
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, file, data); err != nil {
		return "", fmt.Errorf("render %q: %w", file, err)
	}
	return buf.String(), nil
}

// Render renders subject, text, and html for the given template name.
func Render(name string, data any) (subject, text, html string, err error) {
	if textSet.Lookup(name+".subject.tmpl") == nil {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	if subject, err = execute(textSet, name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = execute(textSet, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = execute(htmlSet, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
