package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/gartstein/vestledger/cmd/vestledger/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug logging."`
		Version kong.VersionFlag
		Serve   commands.ServeCmd `cmd:"" help:"Start the gRPC server and HTTP gateway"`
		Audit   commands.AuditCmd `cmd:"" help:"Consume ledger events and log them"`
		Mint    commands.MintCmd  `cmd:"" help:"Credit tokens to an account in the local ledger"`
	}
)

func main() {
	envFile := os.Getenv("VESTLEDGER_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := commands.LoadDotenv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("vestledger"),
		kong.Description("Token vesting ledger"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
