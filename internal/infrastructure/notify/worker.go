package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-wallet-accounts/pkg/helpers"
	"github.com/oksasatya/go-wallet-accounts/pkg/mailer"
	mailtpl "github.com/oksasatya/go-wallet-accounts/pkg/mailer/templates"
)

// ErrUnprocessable marks a message that will never succeed and must not be
// requeued.
var ErrUnprocessable = errors.New("unprocessable email job")

// Worker renders queued email jobs and hands them to a Sender.
type Worker struct {
	Sender      mailer.Sender
	Resolver    mailtpl.GeoResolver
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

func NewWorker(sender mailer.Sender, resolver mailtpl.GeoResolver, logger *logrus.Logger) *Worker {
	return &Worker{Sender: sender, Resolver: resolver, Logger: logger, SendTimeout: 15 * time.Second}
}

// Process handles one message body. Errors wrapping ErrUnprocessable should be
// dropped; any other error is worth a retry.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnprocessable, err)
	}
	if !helpers.NormalizeTemplate(&job) {
		return fmt.Errorf("%w: unknown template %q", ErrUnprocessable, job.Template)
	}
	helpers.EnsureRecipientAndEmail(&job)
	if w.Resolver != nil {
		helpers.LocalizeTimesIfPossible(ctx, w.Resolver, job.Data)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrUnprocessable, job.Template, err)
		}
		subject, text, html = s, t, h
	}

	c, cancel := context.WithTimeout(ctx, w.SendTimeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send %s: %w", job.ID, err)
	}
	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{"job_id": job.ID, "template": job.Template}).Info("email sent")
	}
	return nil
}
