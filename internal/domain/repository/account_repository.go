package repository

import (
	"context"

	"github.com/oksasatya/go-wallet-accounts/internal/domain/entity"
)

// TxFunc mutates the collection inside a store transaction. Returning an
// error aborts the transaction and nothing is persisted.
type TxFunc func(c *entity.AccountCollection) error

// AccountRepository defines the account store operations.
//
// Transact is the only way to write: it runs load, fn and save as one
// critical section with respect to every other Transact on the same store.
type AccountRepository interface {
	Load(ctx context.Context) (*entity.AccountCollection, error)
	Transact(ctx context.Context, fn TxFunc) error
}
