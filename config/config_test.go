package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ACCOUNTS_FILE", "STORE_DRIVER", "REDIS_ADDR", "RABBITMQ_URL", "ELASTICSEARCH_ADDRS", "PASSWORD_HASHING", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "data/Accounts.json", cfg.AccountsFile)
	assert.Equal(t, "file", cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreLockTimeout)
	assert.False(t, cfg.PasswordHashing)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Empty(t, cfg.ESAddrs())
	assert.Empty(t, cfg.CORSOrigins())
	assert.Equal(t, "account_notifications", cfg.RabbitMQNotifyQueue)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ACCOUNTS_FILE", "/var/lib/wallet/Accounts.json")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("STORE_LOCK_TIMEOUT", "250ms")
	t.Setenv("PASSWORD_HASHING", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es1:9200,http://es2:9200")

	cfg := Load()
	assert.Equal(t, "/var/lib/wallet/Accounts.json", cfg.AccountsFile)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreLockTimeout)
	assert.True(t, cfg.PasswordHashing)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "wallet", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/wallet?sslmode=disable", cfg.PostgresDSN())
}
