package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-wallet-accounts/internal/domain/entity"
	"github.com/oksasatya/go-wallet-accounts/internal/domain/repository"
)

// ErrUniqueViolation is returned when the database rejects a duplicate
// username or wallet address that slipped past the collection checks.
var ErrUniqueViolation = errors.New("unique violation")

const selectAccounts = `
	SELECT id, username, email, password, wallet_address, private_key, public_key, balance,
	       transactions, notifications, network_nodes,
	       daily_send_limit, single_tx_limit, time_limit_date, fundraiser_time_limit
	FROM accounts
	ORDER BY position`

// AccountRepository stores one row per account. Transact holds a table lock
// that conflicts with itself, so writers are serialized while plain reads
// continue against the last committed state.
type AccountRepository struct {
	pool txBeginner
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// txBeginner is the part of *pgxpool.Pool the repository uses.
type txBeginner interface {
	querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

func (r *AccountRepository) Load(ctx context.Context) (*entity.AccountCollection, error) {
	return loadAccounts(ctx, r.pool)
}

func (r *AccountRepository) Transact(ctx context.Context, fn repository.TxFunc) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.Background())
		}
	}()

	if _, err = tx.Exec(ctx, `LOCK TABLE accounts IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock accounts: %w", err)
	}

	c, err := loadAccounts(ctx, tx)
	if err != nil {
		return err
	}
	before := make([]entity.Account, len(c.Accounts))
	for i := range c.Accounts {
		before[i] = c.Accounts[i].Clone()
	}

	if err = fn(c); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range c.Accounts {
		a := &c.Accounts[i]
		if i < len(before) {
			if reflect.DeepEqual(before[i], *a) {
				continue
			}
			err = updateAccount(ctx, tx, a, now)
		} else {
			err = insertAccount(ctx, tx, a, now)
		}
		if err != nil {
			return mapPGError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func loadAccounts(ctx context.Context, q querier) (*entity.AccountCollection, error) {
	rows, err := q.Query(ctx, selectAccounts)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	c := &entity.AccountCollection{}
	for rows.Next() {
		var (
			a                 entity.Account
			txs, notes, nodes []byte
		)
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.Password, &a.WalletAddress, &a.PrivateKey, &a.PublicKey, &a.Balance,
			&txs, &notes, &nodes,
			&a.DailySendLimit, &a.SingleTxLimit, &a.TimeLimitDate, &a.FundraiserTimeLimit); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if err := decodeRaw(txs, &a.Transactions); err != nil {
			return nil, err
		}
		if err := decodeRaw(notes, &a.Notifications); err != nil {
			return nil, err
		}
		if err := decodeRaw(nodes, &a.NetworkNodes); err != nil {
			return nil, err
		}
		a.Normalize()
		c.Accounts = append(c.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return c, nil
}

func insertAccount(ctx context.Context, tx pgx.Tx, a *entity.Account, now time.Time) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	txs, notes, nodes, err := encodeSequences(a)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, username, email, password, wallet_address, private_key, public_key, balance,
		                      transactions, notifications, network_nodes,
		                      daily_send_limit, single_tx_limit, time_limit_date, fundraiser_time_limit,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`, a.ID, a.Username, a.Email, a.Password, a.WalletAddress, a.PrivateKey, a.PublicKey, a.Balance,
		txs, notes, nodes,
		a.DailySendLimit, a.SingleTxLimit, a.TimeLimitDate, a.FundraiserTimeLimit, now)
	return err
}

func updateAccount(ctx context.Context, tx pgx.Tx, a *entity.Account, now time.Time) error {
	txs, notes, nodes, err := encodeSequences(a)
	if err != nil {
		return err
	}
	res, err := tx.Exec(ctx, `
		UPDATE accounts
		SET username = $1, email = $2, password = $3, balance = $4,
		    transactions = $5, notifications = $6, network_nodes = $7,
		    daily_send_limit = $8, single_tx_limit = $9, time_limit_date = $10, fundraiser_time_limit = $11,
		    updated_at = $12
		WHERE id = $13
	`, a.Username, a.Email, a.Password, a.Balance,
		txs, notes, nodes,
		a.DailySendLimit, a.SingleTxLimit, a.TimeLimitDate, a.FundraiserTimeLimit,
		now, a.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("update account %s: no row", a.ID)
	}
	return nil
}

func encodeSequences(a *entity.Account) (txs, notes, nodes []byte, err error) {
	a.Normalize()
	if txs, err = json.Marshal(a.Transactions); err != nil {
		return nil, nil, nil, err
	}
	if notes, err = json.Marshal(a.Notifications); err != nil {
		return nil, nil, nil, err
	}
	if nodes, err = json.Marshal(a.NetworkNodes); err != nil {
		return nil, nil, nil, err
	}
	return txs, notes, nodes, nil
}

func decodeRaw(b []byte, dst *[]json.RawMessage) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode account sequence: %w", err)
	}
	return nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
