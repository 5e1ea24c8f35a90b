package providers

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/env"
	"github.com/km-arc/go-kernel/framework/executor"
	"github.com/km-arc/go-kernel/framework/routing"
)

// Catalog lists the builders a builders file may name. Executor entries take
// the detected API, which the application passes when building "executor".
//
//	executor: kernel.executor
//	router: routing.chi
//	logger: logging.nop
func Catalog() config.Catalog {
	return config.Catalog{
		"kernel.executor": func(api env.API) (executor.Executor, error) {
			return executor.ForAPI(api, executor.StdStreams())
		},
		"kernel.environment": env.New,
		"kernel.runid":       uuid.NewString,
		"executor.cli": func(env.API) executor.Executor {
			return executor.NewCLI(executor.StdStreams())
		},
		"executor.http": func(env.API) executor.Executor {
			return executor.NewHTTP(executor.StdStreams())
		},
		"routing.chi": func() *routing.Router {
			return routing.New(nil)
		},
		"logging.nop":         zap.NewNop,
		"logging.development": func() (*zap.Logger, error) { return zap.NewDevelopment() },
		"logging.production":  func() (*zap.Logger, error) { return zap.NewProduction() },
	}
}
