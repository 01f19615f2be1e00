package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/isectech/ctf-datagen/delivery/cli"
	"github.com/isectech/ctf-datagen/shared/common"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(common.ExitCodeOf(err))
}
