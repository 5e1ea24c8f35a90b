package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/app"
	"github.com/km-arc/go-kernel/framework/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	application, err := app.New(app.WithBasePath(config.Get("KERNEL_BASE_PATH", "")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "kernel: %v\n", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := application.Execute(ctx); err != nil {
		application.Logger().Error("execution failed", zap.Error(err))
		return 1
	}
	return 0
}
