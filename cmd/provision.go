package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pvemesh/pvemesh-ctl/internal/logging"
	"github.com/pvemesh/pvemesh-ctl/internal/provision"
	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision a new mesh node container",
	Long: `Provision allocates a fresh VMID from the cluster inventory, creates
an LXC container from the configured OS template, waits for it to come
up, installs the base tooling, configures sshd, and deploys the mesh
client via a compose definition.

Re-running provision creates a new container each time; there is no
idempotency across runs.`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

var provisionReadyTimeout time.Duration

func init() {
	provisionCmd.Flags().DurationVar(&provisionReadyTimeout, "ready-timeout", 60*time.Second, "How long to wait for the container to start")
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logging.Debug("starting provisioning", "hostname", cfg.Hostname, "template", cfg.TemplateFilter)
	logInfo("Provisioning mesh node %s...", cfg.Hostname)

	p := provision.New(cfg, system.DefaultExecutor(), system.DefaultFS())
	p.ReadyTimeout = provisionReadyTimeout

	result, err := p.Provision(ctx)
	if err != nil {
		reportSteps(result)
		return err
	}

	for _, w := range result.Warnings() {
		logWarning("  %s: %v", w.Name, w.Err)
	}

	logSuccess("Container %d provisioned", result.VMID)
	fmt.Printf("  Hostname: %s\n", result.Hostname)
	fmt.Printf("  Template: %s\n", result.Template)
	fmt.Printf("  Connect:  ssh -p %d root@%s\n", cfg.SSHPort, cfg.Hostname)

	return nil
}

// reportSteps prints the per-step outcome of a failed run so the operator
// can see how far provisioning got.
func reportSteps(result *provision.Result) {
	if result == nil {
		return
	}
	for _, s := range result.Steps {
		switch {
		case s.Skipped:
			fmt.Printf("  - %s: skipped\n", s.Name)
		case s.Err == nil:
			fmt.Printf("  ✓ %s\n", s.Name)
		case s.Advisory:
			logWarning("  %s: %v", s.Name, s.Err)
		default:
			logging.UserError("  %s: %v", s.Name, s.Err)
		}
	}
}
