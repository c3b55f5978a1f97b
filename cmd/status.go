package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pvemesh/pvemesh-ctl/internal/errors"
	"github.com/pvemesh/pvemesh-ctl/internal/pve"
	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

var statusCmd = &cobra.Command{
	Use:   "status <vmid>",
	Short: "Show the status of a provisioned container",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	vmid, err := parseVMIDArg(args[0])
	if err != nil {
		return err
	}

	resources, err := pve.Inventory(ctx, system.DefaultExecutor())
	if err != nil {
		return errors.InventoryFailed(err)
	}

	containers := pve.Containers(resources)
	var entry *pve.Resource
	for i := range containers {
		if containers[i].VMID == vmid {
			entry = &containers[i]
			break
		}
	}

	if entry == nil {
		return errors.New(errors.ExitContainerFailed, fmt.Sprintf("container %d not found in cluster inventory", vmid))
	}

	status, err := pctClient().Status(ctx, vmid)
	if err != nil {
		return errors.ContainerFailed("status", err)
	}

	fmt.Printf("VMID:    %d\n", vmid)
	fmt.Printf("Name:    %s\n", entry.Name)
	fmt.Printf("Node:    %s\n", entry.Node)
	fmt.Printf("Status:  %s\n", status)

	return nil
}
