package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/go-wallet-accounts/pkg/mailer"
	mailtpl "github.com/oksasatya/go-wallet-accounts/pkg/mailer/templates"
)

// EnsureRecipientAndEmail fills Email/RecipientEmail template fields from
// the job recipient when the producer left them blank.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// NormalizeTemplate lower-cases the template name and reports whether the
// worker knows how to render it.
func NormalizeTemplate(job *mailer.EmailJob) bool {
	job.Template = strings.ToLower(strings.TrimSpace(job.Template))
	switch job.Template {
	case "":
		return job.Subject != "" && (job.Text != "" || job.HTML != "")
	case mailtpl.AccountCreated, mailtpl.AccountUpdated:
		return true
	default:
		return false
	}
}
