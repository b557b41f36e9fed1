package templates

import (
	"time"

	"github.com/oksasatya/go-wallet-accounts/config"
)

// Option customizes EmailData.
type Option func(*EmailData)

func WithIP(ip string) Option { return func(d *EmailData) { d.IP = ip } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}
func WithWalletAddress(addr string) Option { return func(d *EmailData) { d.WalletAddress = addr } }
func WithChanges(ch map[string]string) Option {
	return func(d *EmailData) { d.Changes = ch }
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, username, email string, opts ...Option) EmailData {
	d := EmailData{
		Username:       username,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewAccountCreatedData(cfg *config.Config, username, email, walletAddress string, opts ...Option) map[string]any {
	opts = append([]Option{WithWalletAddress(walletAddress)}, opts...)
	return ToMap(NewBaseEmailData(cfg, AccountCreated, username, email, opts...))
}

func NewAccountUpdatedData(cfg *config.Config, username, email string, changes map[string]string, opts ...Option) map[string]any {
	opts = append([]Option{WithChanges(changes)}, opts...)
	return ToMap(NewBaseEmailData(cfg, AccountUpdated, username, email, opts...))
}
