package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/m-mizutani/relwatch/pkg/cli"
)

func main() {
	// Tokens and webhook URLs commonly come from a local .env in
	// development. A missing file is fine.
	_ = godotenv.Load()

	if err := cli.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
