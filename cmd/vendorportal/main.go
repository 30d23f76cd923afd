package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type cli struct {
	Serve    serveCmd    `cmd:"" default:"1" help:"Run the vendor portal HTTP server."`
	Sections sectionsCmd `cmd:"" help:"List the portal sections and their columns."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k := kong.Parse(&cli{},
		kong.Name("vendorportal"),
		kong.Description("Self-service portal for vendors: orders, deliveries, invoices and payments."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	k.FatalIfErrorf(k.Run())
}
