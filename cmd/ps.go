package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pvemesh/pvemesh-ctl/internal/errors"
	"github.com/pvemesh/pvemesh-ctl/internal/pve"
	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List LXC containers in the cluster inventory",
	Args:  cobra.NoArgs,
	RunE:  runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	resources, err := pve.Inventory(ctx, system.DefaultExecutor())
	if err != nil {
		return errors.InventoryFailed(err)
	}

	containers := pve.Containers(resources)
	if len(containers) == 0 {
		logInfo("No containers in the cluster inventory.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VMID\tNAME\tSTATUS\tNODE")
	fmt.Fprintln(w, "----\t----\t------\t----")

	for _, c := range containers {
		name := c.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.VMID, name, c.Status, c.Node)
	}

	return w.Flush()
}
