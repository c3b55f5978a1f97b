package cmd

import (
	"fmt"
	"strconv"

	"github.com/pvemesh/pvemesh-ctl/internal/config"
	"github.com/pvemesh/pvemesh-ctl/internal/errors"
	"github.com/pvemesh/pvemesh-ctl/internal/pve"
)

// loadConfig loads the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// pctClient returns a pct client using the real OS executor.
func pctClient() *pve.Client {
	return pve.NewClient()
}

// parseVMIDArg parses a positional VMID argument.
func parseVMIDArg(arg string) (int, error) {
	vmid, err := strconv.Atoi(arg)
	if err != nil || vmid < 0 {
		return 0, errors.ValidationError(fmt.Sprintf("invalid vmid %q: must be a non-negative integer", arg))
	}
	return vmid, nil
}
