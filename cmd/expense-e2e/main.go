package main

import (
	"os"

	"github.com/Dicklesworthstone/expense-e2e/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
