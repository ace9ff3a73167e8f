package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/vidtube-accounts/pkg/mailer/templates"
)

// ErrBadJob marks a job that can never be delivered and must not be retried.
var ErrBadJob = errors.New("bad email job")

// Compose renders the job's template, or returns its literal content.
func (j EmailJob) Compose() (subject, text, html string, err error) {
	if strings.TrimSpace(j.To) == "" {
		return "", "", "", fmt.Errorf("%w: missing recipient", ErrBadJob)
	}
	if j.Template == "" {
		if j.Subject == "" || (j.Text == "" && j.HTML == "") {
			return "", "", "", fmt.Errorf("%w: no template and no content", ErrBadJob)
		}
		return j.Subject, j.Text, j.HTML, nil
	}
	subject, text, html, err = templates.Render(j.Template, j.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	return subject, text, html, nil
}

// Deliver decodes a queued job and sends it. Errors wrapping ErrBadJob are
// permanent; any other error means the message may be retried.
func Deliver(ctx context.Context, s Sender, body []byte) (*EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	subject, text, html, err := job.Compose()
	if err != nil {
		return &job, err
	}
	if err := s.Send(ctx, job.To, subject, text, html); err != nil {
		return &job, fmt.Errorf("send: %w", err)
	}
	return &job, nil
}
