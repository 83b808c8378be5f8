package main

import (
	"os"

	"github.com/vetdesk/vetdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
