package pve

import (
	"strconv"
	"strings"

	"github.com/pvemesh/pvemesh-ctl/internal/logging"
)

// BaselineVMID is returned when no container exists in the inventory.
// VMIDs below 100 are reserved on Proxmox hosts.
const BaselineVMID = 100

// NextVMID computes the next unused container identifier from the cluster
// inventory. Only container-type entries count: a qemu VM with a larger
// VMID does not influence the result. Entries whose ID lacks a parsable
// numeric suffix are skipped with a warning instead of mis-sorting the
// candidate set.
//
// The result is advisory. There is no reservation step, so a concurrent
// allocation may compute the same value; pct create is the authoritative
// claim and callers retry on collision.
func NextVMID(resources []Resource) int {
	max := -1
	for _, r := range resources {
		if r.Type != ResourceTypeLXC {
			continue
		}

		id, ok := parseVMID(r.ID)
		if !ok {
			logging.Warn("skipping malformed resource id", "id", r.ID)
			continue
		}

		if id > max {
			max = id
		}
	}

	if max < 0 {
		return BaselineVMID
	}
	return max + 1
}

// parseVMID extracts the numeric suffix from a composite resource ID of
// the form "<kind>/<number>".
func parseVMID(id string) (int, bool) {
	idx := strings.LastIndexByte(id, '/')
	if idx < 0 || idx == len(id)-1 {
		return 0, false
	}

	n, err := strconv.Atoi(id[idx+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
