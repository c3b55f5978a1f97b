package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pvemesh/pvemesh-ctl/internal/errors"
	"github.com/pvemesh/pvemesh-ctl/internal/logging"
)

var destroyCmd = &cobra.Command{
	Use:   "destroy <vmid>",
	Short: "Stop and destroy a provisioned container",
	Args:  cobra.ExactArgs(1),
	RunE:  runDestroy,
}

func init() {
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	vmid, err := parseVMIDArg(args[0])
	if err != nil {
		return err
	}

	client := pctClient()

	// A stopped container makes pct stop fail; that is fine.
	if err := client.Stop(ctx, vmid); err != nil {
		logging.Debug("stop before destroy failed", "vmid", vmid, "error", err)
	}

	if err := client.Destroy(ctx, vmid); err != nil {
		return errors.ContainerFailed("destroy", err)
	}

	logSuccess("Container %d destroyed", vmid)
	return nil
}
