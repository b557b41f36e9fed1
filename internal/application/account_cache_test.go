package application_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-wallet-accounts/internal/application"
	"github.com/oksasatya/go-wallet-accounts/internal/domain/entity"
	"github.com/oksasatya/go-wallet-accounts/internal/infrastructure/jsonfile"
	"github.com/oksasatya/go-wallet-accounts/pkg/helpers/redistest"
)

// racingRepo runs afterLoad once, after Load took its snapshot and before it
// returns, to put a commit between a cache miss and the fill.
type racingRepo struct {
	*jsonfile.AccountStore
	afterLoad func()
}

func (r *racingRepo) Load(ctx context.Context) (*entity.AccountCollection, error) {
	c, err := r.AccountStore.Load(ctx)
	if f := r.afterLoad; f != nil {
		r.afterLoad = nil
		f()
	}
	return c, err
}

func newCachedFixture(t *testing.T) (*application.AccountService, *racingRepo, *redistest.Store) {
	t.Helper()
	store, err := jsonfile.NewAccountStore(filepath.Join(t.TempDir(), "Accounts.json"), quietLogger())
	require.NoError(t, err)
	repo := &racingRepo{AccountStore: store}
	rdb, mem := redistest.NewClient()
	svc := application.NewAccountService(repo, quietLogger(), application.WithRedis(rdb, 0))
	return svc, repo, mem
}

func TestCache_WriteThroughOnCommit(t *testing.T) {
	svc, _, mem := newCachedFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, application.CreateAccountInput{Username: "alice", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)
	_, ok := mem.Get("account:view:alice")
	require.True(t, ok)

	_, err = svc.Update(ctx, application.UpdateAccountInput{Username: "alice", Email: ptr("new@x.com")})
	require.NoError(t, err)

	v, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", v.Email)
}

func TestCache_StaleFillDoesNotOverwriteCommit(t *testing.T) {
	svc, repo, mem := newCachedFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, application.CreateAccountInput{Username: "alice", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	// evict, then let an update commit between the snapshot and the fill
	mem.Delete("account:view:alice")
	repo.afterLoad = func() {
		_, uErr := svc.Update(ctx, application.UpdateAccountInput{Username: "alice", Email: ptr("new@x.com")})
		require.NoError(t, uErr)
	}

	stale, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", stale.Email)

	fresh, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", fresh.Email)
}

func TestCache_RenameRetiresOldName(t *testing.T) {
	svc, repo, mem := newCachedFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, application.CreateAccountInput{Username: "alice", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)
	mem.Delete("account:view:alice")

	repo.afterLoad = func() {
		_, uErr := svc.Update(ctx, application.UpdateAccountInput{Username: "alice", NewUsername: ptr("alice2")})
		require.NoError(t, uErr)
	}
	_, err = svc.Get(ctx, "alice")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "alice")
	assert.ErrorIs(t, err, application.ErrNotFound)

	v, err := svc.Get(ctx, "alice2")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", v.Email)
}

func TestCache_NameReusedAfterRename(t *testing.T) {
	svc, _, _ := newCachedFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, application.CreateAccountInput{Username: "alice", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, application.UpdateAccountInput{Username: "alice", NewUsername: ptr("alice2")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, application.CreateAccountInput{Username: "alice", Email: "other@x.com", Password: "p"})
	require.NoError(t, err)

	v, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "other@x.com", v.Email)
}
