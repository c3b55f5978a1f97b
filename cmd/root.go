package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pvemesh/pvemesh-ctl/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "pvemesh-ctl",
	Short: "Proxmox VE mesh node provisioning CLI",
	Long: `pvemesh-ctl provisions LXC containers on a Proxmox VE host and turns
them into VPN mesh nodes.

Each provisioned container gets:
  - A freshly allocated VMID from the cluster inventory
  - A base OS from the pveam template catalog
  - sshd with key-only authentication
  - The mesh client deployed via a compose definition`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default /etc/pvemesh/config.toml)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)
