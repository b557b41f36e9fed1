package container

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-wallet-accounts/config"
	"github.com/oksasatya/go-wallet-accounts/internal/domain/repository"
	"github.com/oksasatya/go-wallet-accounts/internal/infrastructure/gcsbackup"
	"github.com/oksasatya/go-wallet-accounts/internal/infrastructure/jsonfile"
	pginfra "github.com/oksasatya/go-wallet-accounts/internal/infrastructure/postgres"
	"github.com/oksasatya/go-wallet-accounts/pkg/helpers"
)

// OpenAccountRepo builds the account store selected by STORE_DRIVER. The
// returned cleanup releases pools and waits for pending backups.
func OpenAccountRepo(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.AccountRepository, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("account store: postgres")
		return pginfra.NewAccountRepository(pool), pool.Close, nil

	case "file", "":
		opts := []jsonfile.Option{jsonfile.WithLockTimeout(cfg.StoreLockTimeout)}
		cleanup := func() {}
		if cfg.GCSBackupBucket != "" {
			client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
			if err != nil {
				return nil, nil, fmt.Errorf("init GCS client: %w", err)
			}
			snap := gcsbackup.NewSnapshotter(client, cfg.GCSBackupBucket, cfg.GCSBackupPrefix, filepath.Base(cfg.AccountsFile), logger)
			opts = append(opts, jsonfile.WithCommitHook(snap.Snapshot))
			cleanup = func() {
				snap.Wait()
				_ = client.Close()
			}
			logger.WithField("bucket", cfg.GCSBackupBucket).Info("accounts snapshots enabled")
		}
		store, err := jsonfile.NewAccountStore(cfg.AccountsFile, logger, opts...)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.WithField("path", store.Path()).Info("account store: json file")
		return store, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
