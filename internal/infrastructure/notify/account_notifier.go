package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-wallet-accounts/config"
	"github.com/oksasatya/go-wallet-accounts/internal/application"
	"github.com/oksasatya/go-wallet-accounts/pkg/mailer"
	mailtpl "github.com/oksasatya/go-wallet-accounts/pkg/mailer/templates"
)

// Publisher puts a typed JSON message on the notification queue.
type Publisher interface {
	PublishJSON(ctx context.Context, msgType string, body any) error
}

// AccountNotifier turns committed account changes into email jobs for the
// notify worker.
type AccountNotifier struct {
	Pub Publisher
	Cfg *config.Config
	Now func() time.Time
}

func NewAccountNotifier(pub Publisher, cfg *config.Config) *AccountNotifier {
	return &AccountNotifier{Pub: pub, Cfg: cfg, Now: time.Now}
}

func (n *AccountNotifier) AccountCreated(ctx context.Context, v application.AccountView, ip string) error {
	if !n.enabled() || v.Email == "" {
		return nil
	}
	job := mailer.EmailJob{
		ID:       uuid.NewString(),
		To:       v.Email,
		Template: mailtpl.AccountCreated,
		Data: mailtpl.NewAccountCreatedData(n.Cfg, v.Username, v.Email, v.WalletAddress,
			mailtpl.WithIP(ip), mailtpl.WithTime(n.Now())),
	}
	return n.Pub.PublishJSON(ctx, mailtpl.AccountCreated, job)
}

func (n *AccountNotifier) AccountUpdated(ctx context.Context, v application.AccountView, changes map[string]string, ip string) error {
	if !n.enabled() || v.Email == "" || len(changes) == 0 {
		return nil
	}
	job := mailer.EmailJob{
		ID:       uuid.NewString(),
		To:       v.Email,
		Template: mailtpl.AccountUpdated,
		Data: mailtpl.NewAccountUpdatedData(n.Cfg, v.Username, v.Email, changes,
			mailtpl.WithIP(ip), mailtpl.WithTime(n.Now())),
	}
	return n.Pub.PublishJSON(ctx, mailtpl.AccountUpdated, job)
}

func (n *AccountNotifier) enabled() bool {
	return n != nil && n.Pub != nil && n.Cfg != nil && n.Cfg.MailSendEnabled
}

var _ application.Notifier = (*AccountNotifier)(nil)
