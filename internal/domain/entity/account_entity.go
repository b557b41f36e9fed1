package entity

import "encoding/json"

// Account is one registered wallet user as persisted in the accounts document.
//
// Password is stored exactly as supplied (or as a bcrypt hash when password
// hashing is enabled). PrivateKey and PublicKey are independent random values,
// not a real signing key pair.
type Account struct {
	// ID is the row identity used by the postgres store; the JSON document
	// identifies records by position instead.
	ID string `json:"-"`

	Username      string  `json:"username"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	WalletAddress string  `json:"walletAddress"`
	PrivateKey    string  `json:"privateKey"`
	PublicKey     string  `json:"publicKey"`
	Balance       float64 `json:"balance"`

	// Owned by other subsystems, carried through untouched.
	Transactions  []json.RawMessage `json:"transactions"`
	Notifications []json.RawMessage `json:"notifications"`
	NetworkNodes  []json.RawMessage `json:"networkNodes"`

	DailySendLimit      *float64 `json:"dailySendLimit"`
	SingleTxLimit       *float64 `json:"singleTxLimit"`
	TimeLimitDate       *string  `json:"timeLimitDate"`
	FundraiserTimeLimit *string  `json:"fundraiserTimeLimit"`
}

// NewAccount builds a freshly registered account with zero balance, empty
// history and no limits.
func NewAccount(username, email, password string, keys WalletKeys) Account {
	return Account{
		Username:      username,
		Email:         email,
		Password:      password,
		WalletAddress: keys.Address,
		PrivateKey:    keys.PrivateKey,
		PublicKey:     keys.PublicKey,
		Balance:       0,
		Transactions:  []json.RawMessage{},
		Notifications: []json.RawMessage{},
		NetworkNodes:  []json.RawMessage{},
	}
}

// WalletKeys is the generated key material of a new account.
type WalletKeys struct {
	Address    string
	PrivateKey string
	PublicKey  string
}

// Clone returns a deep copy so a working copy can be mutated without
// touching the loaded snapshot.
func (a Account) Clone() Account {
	c := a
	c.Transactions = cloneRaw(a.Transactions)
	c.Notifications = cloneRaw(a.Notifications)
	c.NetworkNodes = cloneRaw(a.NetworkNodes)
	c.DailySendLimit = clonePtr(a.DailySendLimit)
	c.SingleTxLimit = clonePtr(a.SingleTxLimit)
	c.TimeLimitDate = clonePtr(a.TimeLimitDate)
	c.FundraiserTimeLimit = clonePtr(a.FundraiserTimeLimit)
	return c
}

// Normalize replaces nil sequences with empty ones so the document always
// serializes them as [] rather than null.
func (a *Account) Normalize() {
	if a.Transactions == nil {
		a.Transactions = []json.RawMessage{}
	}
	if a.Notifications == nil {
		a.Notifications = []json.RawMessage{}
	}
	if a.NetworkNodes == nil {
		a.NetworkNodes = []json.RawMessage{}
	}
}

func cloneRaw(in []json.RawMessage) []json.RawMessage {
	if in == nil {
		return nil
	}
	out := make([]json.RawMessage, len(in))
	for i, m := range in {
		out[i] = append(json.RawMessage(nil), m...)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
