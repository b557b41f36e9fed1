package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-wallet-accounts/config"
	"github.com/oksasatya/go-wallet-accounts/internal/domain/repository"
	"github.com/oksasatya/go-wallet-accounts/pkg/helpers"
)

// app-level container shared by main and the router so modules can be wired
// from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	accountRepo repository.AccountRepository
	redisClient *redis.Client
	rabbitPub   *helpers.RabbitPublisher
	esClient    *elasticsearch.Client
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger != nil {
		return logger
	}
	return logrus.StandardLogger()
}
func SetAccountRepo(r repository.AccountRepository) { accountRepo = r }
func GetAccountRepo() repository.AccountRepository  { return accountRepo }
func SetRedis(r *redis.Client)                      { redisClient = r }
func GetRedis() *redis.Client                       { return redisClient }
func SetRabbitPub(p *helpers.RabbitPublisher)       { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher        { return rabbitPub }
func SetES(c *elasticsearch.Client)                 { esClient = c }
func GetES() *elasticsearch.Client                  { return esClient }
