package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-wallet-accounts/internal/domain/entity"
)

var accountColumns = []string{
	"id", "username", "email", "password", "wallet_address", "private_key", "public_key", "balance",
	"transactions", "notifications", "network_nodes",
	"daily_send_limit", "single_tx_limit", "time_limit_date", "fundraiser_time_limit",
}

func accountRows(usernames ...string) *pgxmock.Rows {
	rows := pgxmock.NewRows(accountColumns)
	for _, u := range usernames {
		rows.AddRow("id-"+u, u, u+"@x.com", "p1", "0x"+u, "0xpriv", "0xpub", 0.0,
			[]byte("[]"), []byte("[]"), []byte("[]"),
			(*float64)(nil), (*float64)(nil), (*string)(nil), (*string)(nil))
	}
	return rows
}

func newMockRepo(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &AccountRepository{pool: mock}, mock
}

func expectLockedLoad(mock pgxmock.PgxPoolIface, usernames ...string) {
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec("LOCK TABLE accounts IN SHARE ROW EXCLUSIVE MODE").WillReturnResult(pgxmock.NewResult("LOCK TABLE", 0))
	mock.ExpectQuery("SELECT id, username").WillReturnRows(accountRows(usernames...))
}

func TestTransact_UpdatesOnlyChangedRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectLockedLoad(mock, "alice", "bob")
	mock.ExpectExec("UPDATE accounts").
		WithArgs("bob", "new@x.com", "p1", 0.0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), "id-bob").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(c *entity.AccountCollection) error {
		idx, ok := c.FindByUsername("bob")
		require.True(t, ok)
		a := c.At(idx)
		a.Email = "new@x.com"
		c.Replace(idx, a)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransact_InsertsAppendedRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectLockedLoad(mock, "alice")
	mock.ExpectExec("INSERT INTO accounts").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(c *entity.AccountCollection) error {
		c.Append(entity.NewAccount("carol", "c@x.com", "p", entity.WalletKeys{Address: "0xc"}))
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransact_NoChangesCommitsWithoutWrites(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectLockedLoad(mock, "alice")
	mock.ExpectCommit()

	require.NoError(t, repo.Transact(context.Background(), func(*entity.AccountCollection) error { return nil }))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransact_FnErrorRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectLockedLoad(mock, "alice")
	mock.ExpectRollback()

	boom := errors.New("conflict")
	err := repo.Transact(context.Background(), func(c *entity.AccountCollection) error {
		c.Append(entity.NewAccount("mallory", "m@x.com", "p", entity.WalletKeys{}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransact_UniqueViolationRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectLockedLoad(mock)
	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_username_key"})
	mock.ExpectRollback()

	err := repo.Transact(context.Background(), func(c *entity.AccountCollection) error {
		c.Append(entity.NewAccount("alice", "a@x.com", "p", entity.WalletKeys{Address: "0xa"}))
		return nil
	})
	require.ErrorIs(t, err, ErrUniqueViolation)
	assert.Contains(t, err.Error(), "accounts_username_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransact_MissingRowOnUpdateRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectLockedLoad(mock, "alice")
	mock.ExpectExec("UPDATE accounts").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Transact(context.Background(), func(c *entity.AccountCollection) error {
		a := c.At(0)
		a.Email = "x@x.com"
		c.Replace(0, a)
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no row")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_ReadsRowsInOrder(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT id, username").WillReturnRows(accountRows("alice", "bob"))

	c, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "alice", c.At(0).Username)
	assert.Equal(t, "bob", c.At(1).Username)
	assert.Empty(t, c.At(0).Transactions)
	assert.Nil(t, c.At(0).DailySendLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}
