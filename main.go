package main

import (
	"os"

	"github.com/pvemesh/pvemesh-ctl/cmd"
	"github.com/pvemesh/pvemesh-ctl/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
