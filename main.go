// Skillmine mines the commit history of many repositories into per-developer skill profiles.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/skillmine/cmd"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/iocache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute(ctx)

	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	iocache.CloseStores()
	stop()

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
