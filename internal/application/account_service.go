package application

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-wallet-accounts/internal/domain/entity"
	repo "github.com/oksasatya/go-wallet-accounts/internal/domain/repository"
	"github.com/oksasatya/go-wallet-accounts/pkg/helpers"
	"github.com/oksasatya/go-wallet-accounts/pkg/validation"
)

// Notifier is told about committed account changes. Implementations must not
// block for long; failures are logged and never fail the operation.
type Notifier interface {
	AccountCreated(ctx context.Context, v AccountView, ip string) error
	AccountUpdated(ctx context.Context, v AccountView, changes map[string]string, ip string) error
}

// KeyGenerator produces key material for a new account.
type KeyGenerator func() (entity.WalletKeys, error)

type ServiceOption func(*AccountService)

func WithRedis(rdb *redis.Client, ttl time.Duration) ServiceOption {
	return func(s *AccountService) { s.Redis = rdb; s.CacheTTL = ttl }
}

func WithElasticsearch(es *elasticsearch.Client, index string) ServiceOption {
	return func(s *AccountService) { s.ES = es; s.ESAccountsIndex = index }
}

func WithNotifier(n Notifier) ServiceOption {
	return func(s *AccountService) { s.Notifier = n }
}

func WithKeyGenerator(g KeyGenerator) ServiceOption {
	return func(s *AccountService) { s.Keys = g }
}

// WithPasswordHashing stores new passwords as bcrypt hashes.
func WithPasswordHashing(enabled bool) ServiceOption {
	return func(s *AccountService) { s.HashPasswords = enabled }
}

// AccountService implements the create and update use cases on top of the
// account store.
type AccountService struct {
	Repo            repo.AccountRepository
	Keys            KeyGenerator
	Logger          *logrus.Logger
	Redis           *redis.Client
	CacheTTL        time.Duration
	ES              *elasticsearch.Client
	ESAccountsIndex string
	Notifier        Notifier
	HashPasswords   bool

	validate *validator.Validate
	lastRev  atomic.Int64
}

// nextRevision returns a strictly increasing commit revision in microseconds.
// Callers take it inside Transact so revisions follow commit order.
func (s *AccountService) nextRevision() int64 {
	for {
		last := s.lastRev.Load()
		rev := time.Now().UnixMicro()
		if rev <= last {
			rev = last + 1
		}
		if s.lastRev.CompareAndSwap(last, rev) {
			return rev
		}
	}
}

func NewAccountService(r repo.AccountRepository, logger *logrus.Logger, opts ...ServiceOption) *AccountService {
	s := &AccountService{
		Repo:     r,
		Keys:     helpers.NewWalletKeys,
		Logger:   logger,
		CacheTTL: 5 * time.Minute,
		validate: validation.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccountInput holds the registration fields; all are required.
type CreateAccountInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// UpdateAccountInput is a partial update. A nil field was not supplied.
//
// For NewUsername, Email, TimeLimitDate and FundraiserTimeLimit an empty
// string is treated like an absent field and leaves the stored value as is.
// For OldPassword/NewPassword any non-nil value starts a password change and
// then both must be non-empty. Limits overwrite whenever non-nil, 0 included.
type UpdateAccountInput struct {
	Username            string   `json:"username" validate:"required"`
	NewUsername         *string  `json:"newUsername"`
	Email               *string  `json:"email"`
	OldPassword         *string  `json:"oldPassword"`
	NewPassword         *string  `json:"newPassword"`
	DailySendLimit      *float64 `json:"dailySendLimit"`
	SingleTxLimit       *float64 `json:"singleTxLimit"`
	TimeLimitDate       *string  `json:"timeLimitDate"`
	FundraiserTimeLimit *string  `json:"fundraiserTimeLimit"`
	IP                  string   `json:"-"`
}

// AccountView is the sanitized projection returned to callers. It never
// carries the password or key material other than the wallet address.
type AccountView struct {
	Username            string   `json:"username"`
	Email               string   `json:"email"`
	WalletAddress       string   `json:"walletAddress"`
	DailySendLimit      *float64 `json:"dailySendLimit"`
	SingleTxLimit       *float64 `json:"singleTxLimit"`
	TimeLimitDate       *string  `json:"timeLimitDate"`
	FundraiserTimeLimit *string  `json:"fundraiserTimeLimit"`
}

func NewAccountView(a entity.Account) AccountView {
	c := a.Clone()
	return AccountView{
		Username:            c.Username,
		Email:               c.Email,
		WalletAddress:       c.WalletAddress,
		DailySendLimit:      c.DailySendLimit,
		SingleTxLimit:       c.SingleTxLimit,
		TimeLimitDate:       c.TimeLimitDate,
		FundraiserTimeLimit: c.FundraiserTimeLimit,
	}
}

// hashPassword reports input bcrypt rejects as a validation error on field.
func hashPassword(plain, field, failMsg string) (string, *Error) {
	h, err := helpers.HashPassword(plain)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return "", validationError("Password is too long", map[string]string{field: "must be at most 72 bytes"})
	}
	if err != nil {
		return "", &Error{Kind: ErrInternal, Message: failMsg, Err: err}
	}
	return h, nil
}

type CreateAccountResult struct {
	WalletAddress string
	Account       AccountView
}

// Create registers a new account with freshly generated key material.
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (*CreateAccountResult, error) {
	if err := s.validate.Struct(in); err != nil {
		accountFailures.Add(1)
		return nil, validationError("All fields are required", validation.ToDetails(err))
	}

	stored := in.Password
	if s.HashPasswords {
		h, err := hashPassword(in.Password, "password", "Failed to save account")
		if err != nil {
			accountFailures.Add(1)
			return nil, err
		}
		stored = h
	}

	var (
		created entity.Account
		rev     int64
	)
	err := s.Repo.Transact(ctx, func(c *entity.AccountCollection) error {
		if _, ok := c.FindByUsername(in.Username); ok {
			return newError(ErrConflict, "Username already exists")
		}
		keys, err := s.Keys()
		if err != nil {
			return &Error{Kind: ErrInternal, Message: "Failed to generate wallet keys", Err: err}
		}
		created = entity.NewAccount(in.Username, in.Email, stored, keys)
		c.Append(created)
		rev = s.nextRevision()
		return nil
	})
	if err != nil {
		se := asServiceError(err, ErrPersistence, "Failed to save account")
		s.logFailure("create", in.Username, se)
		return nil, se
	}

	accountsCreated.Add(1)
	view := NewAccountView(created)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"username": view.Username, "wallet_address": view.WalletAddress}).Info("account created")
	}
	s.afterCommit(ctx, "", view, rev)
	if s.Notifier != nil {
		if nErr := s.Notifier.AccountCreated(ctx, view, in.IP); nErr != nil && s.Logger != nil {
			s.Logger.WithError(nErr).WithField("username", view.Username).Warn("account created notification failed")
		}
	}
	return &CreateAccountResult{WalletAddress: created.WalletAddress, Account: view}, nil
}

// Update applies a partial update to an existing account. Either every
// requested change is persisted or none is.
func (s *AccountService) Update(ctx context.Context, in UpdateAccountInput) (*AccountView, error) {
	if err := s.validate.Struct(in); err != nil {
		accountFailures.Add(1)
		return nil, validationError("Username is required for update", validation.ToDetails(err))
	}

	var newStored string
	if in.NewPassword != nil && *in.NewPassword != "" {
		newStored = *in.NewPassword
		if s.HashPasswords {
			h, err := hashPassword(newStored, "newPassword", "Failed to save updated account")
			if err != nil {
				accountFailures.Add(1)
				return nil, err
			}
			newStored = h
		}
	}

	var (
		updated entity.Account
		oldName string
		changes map[string]string
		rev     int64
	)
	err := s.Repo.Transact(ctx, func(c *entity.AccountCollection) error {
		idx, ok := c.FindByUsername(in.Username)
		if !ok {
			return newError(ErrNotFound, "Account not found")
		}
		acc := c.At(idx)
		oldName = acc.Username
		ch, err := applyUpdate(c, idx, &acc, in, newStored)
		if err != nil {
			return err
		}
		c.Replace(idx, acc)
		updated = acc
		changes = ch
		rev = s.nextRevision()
		return nil
	})
	if err != nil {
		se := asServiceError(err, ErrPersistence, "Failed to save updated account")
		s.logFailure("update", in.Username, se)
		return nil, se
	}

	accountsUpdated.Add(1)
	view := NewAccountView(updated)
	if s.Logger != nil {
		fields := logrus.Fields{"username": view.Username, "changed": len(changes)}
		if oldName != view.Username {
			fields["previous_username"] = oldName
		}
		s.Logger.WithFields(fields).Info("account updated")
	}
	s.afterCommit(ctx, oldName, view, rev)
	if s.Notifier != nil && len(changes) > 0 {
		if nErr := s.Notifier.AccountUpdated(ctx, view, changes, in.IP); nErr != nil && s.Logger != nil {
			s.Logger.WithError(nErr).WithField("username", view.Username).Warn("account updated notification failed")
		}
	}
	return &view, nil
}

// applyUpdate runs every guarded sub-transition against the working copy acc.
// It returns the changed fields; acc is discarded by the caller on error.
func applyUpdate(c *entity.AccountCollection, idx int, acc *entity.Account, in UpdateAccountInput, newStored string) (map[string]string, error) {
	changes := map[string]string{}

	if in.NewUsername != nil && *in.NewUsername != "" && *in.NewUsername != acc.Username {
		if c.UsernameTakenByOther(idx, *in.NewUsername) {
			return nil, newError(ErrConflict, "New username already in use")
		}
		acc.Username = *in.NewUsername
		changes["username"] = acc.Username
	}

	if in.Email != nil && *in.Email != "" {
		if acc.Email != *in.Email {
			changes["email"] = *in.Email
		}
		acc.Email = *in.Email
	}

	if in.OldPassword != nil || in.NewPassword != nil {
		oldPwd, newPwd := deref(in.OldPassword), deref(in.NewPassword)
		if oldPwd == "" || newPwd == "" {
			return nil, validationError("Old password and new password are required to change password", nil)
		}
		if !helpers.VerifyPassword(acc.Password, oldPwd) {
			return nil, newError(ErrUnauthorized, "Old password is incorrect")
		}
		acc.Password = newStored
		changes["password"] = "changed"
	}

	for _, l := range []*float64{in.DailySendLimit, in.SingleTxLimit} {
		if l != nil && (math.IsInf(*l, 0) || math.IsNaN(*l)) {
			return nil, validationError("Limits must be finite numbers", nil)
		}
	}
	if in.DailySendLimit != nil {
		v := *in.DailySendLimit
		acc.DailySendLimit = &v
		changes["dailySendLimit"] = formatLimit(v)
	}
	if in.SingleTxLimit != nil {
		v := *in.SingleTxLimit
		acc.SingleTxLimit = &v
		changes["singleTxLimit"] = formatLimit(v)
	}

	if in.TimeLimitDate != nil && *in.TimeLimitDate != "" {
		v := *in.TimeLimitDate
		acc.TimeLimitDate = &v
		changes["timeLimitDate"] = v
	}
	if in.FundraiserTimeLimit != nil && *in.FundraiserTimeLimit != "" {
		v := *in.FundraiserTimeLimit
		acc.FundraiserTimeLimit = &v
		changes["fundraiserTimeLimit"] = v
	}

	return changes, nil
}

func (s *AccountService) logFailure(op, username string, se *Error) {
	accountFailures.Add(1)
	if s.Logger == nil {
		return
	}
	entry := s.Logger.WithFields(logrus.Fields{"op": op, "username": username, "kind": se.Kind.Error()})
	if se.Err != nil {
		entry = entry.WithError(se.Err)
	}
	switch se.Kind {
	case ErrPersistence, ErrInternal:
		entry.Error(se.Message)
	default:
		entry.Debug(se.Message)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
