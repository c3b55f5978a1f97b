package pve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

// Resource types as reported by pvesh get /cluster/resources.
const (
	ResourceTypeLXC  = "lxc"
	ResourceTypeQemu = "qemu"
)

// Resource is one entry of the cluster resource inventory. The ID is a
// composite string such as "lxc/105" or "qemu/200".
type Resource struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	VMID   int    `json:"vmid,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
	Node   string `json:"node,omitempty"`
}

// Inventory queries the cluster resource list. A failed query is returned
// as an error, never as an empty inventory: callers must not fall back to
// a default VMID when the cluster state is unknown.
func Inventory(ctx context.Context, exec system.CommandExecutor) ([]Resource, error) {
	out, err := exec.Execute(ctx, "pvesh", "get", "/cluster/resources", "--output-format", "json")
	if err != nil {
		return nil, fmt.Errorf("pvesh get /cluster/resources: %w (output: %s)", err, out)
	}

	var resources []Resource
	if err := json.Unmarshal(out, &resources); err != nil {
		return nil, fmt.Errorf("failed to parse cluster resources: %w", err)
	}

	return resources, nil
}

// Containers filters the inventory down to LXC entries.
func Containers(resources []Resource) []Resource {
	var out []Resource
	for _, r := range resources {
		if r.Type == ResourceTypeLXC {
			out = append(out, r)
		}
	}
	return out
}
