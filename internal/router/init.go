package router

import (
	"github.com/oksasatya/go-wallet-accounts/internal/application"
	"github.com/oksasatya/go-wallet-accounts/internal/container"
	"github.com/oksasatya/go-wallet-accounts/internal/infrastructure/notify"
	handlers "github.com/oksasatya/go-wallet-accounts/internal/interface/http"
	"github.com/oksasatya/go-wallet-accounts/internal/router/modules"
)

type AccountModuleDeps struct {
	Service *application.AccountService
	Handler *handlers.AccountHandler
}

// BuildAccountService assembles the account service from the container.
func BuildAccountService() *application.AccountService {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	opts := []application.ServiceOption{
		application.WithPasswordHashing(cfg.PasswordHashing),
	}
	if rdb := container.GetRedis(); rdb != nil {
		opts = append(opts, application.WithRedis(rdb, cfg.AccountCacheTTL))
	}
	if es := container.GetES(); es != nil {
		opts = append(opts, application.WithElasticsearch(es, cfg.ESAccountsIndex))
	}
	if pub := container.GetRabbitPub(); pub != nil {
		opts = append(opts, application.WithNotifier(notify.NewAccountNotifier(pub, cfg)))
	}
	return application.NewAccountService(container.GetAccountRepo(), logger, opts...)
}

func buildAccountDeps() AccountModuleDeps {
	svc := BuildAccountService()
	return AccountModuleDeps{
		Service: svc,
		Handler: handlers.NewAccountHandler(svc, container.GetLogger()),
	}
}

// InitModules wires every module into the registry. Call once at startup,
// after the container has been populated.
func InitModules(r *Registry) {
	deps := buildAccountDeps()
	r.Add(modules.NewAccountModule(deps.Handler, container.GetConfig().RateLimitPerMinute))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(r.Engine))
	}
}
