package main

import (
	"os"

	"github.com/silkstream/tunnelctl/cmd"
	"github.com/silkstream/tunnelctl/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
