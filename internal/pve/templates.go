package pve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

// Catalog wraps the pveam template catalog.
type Catalog struct {
	Exec system.CommandExecutor
}

// Update refreshes the appliance index from the download servers.
func (c *Catalog) Update(ctx context.Context) error {
	out, err := c.Exec.Execute(ctx, "pveam", "update")
	if err != nil {
		return fmt.Errorf("pveam update: %w (output: %s)", err, out)
	}
	return nil
}

// Available lists system-section templates available for download.
// Output lines look like:
//
//	system          archlinux-base_20240911-1_amd64.tar.zst
func (c *Catalog) Available(ctx context.Context) ([]string, error) {
	out, err := c.Exec.Execute(ctx, "pveam", "available", "--section", "system")
	if err != nil {
		return nil, fmt.Errorf("pveam available: %w (output: %s)", err, out)
	}
	return parseCatalogLines(string(out)), nil
}

// Downloaded lists templates already present on the given storage.
// Output lines look like:
//
//	local:vztmpl/archlinux-base_20240911-1_amd64.tar.zst  828.81MB
func (c *Catalog) Downloaded(ctx context.Context, storage string) ([]string, error) {
	out, err := c.Exec.Execute(ctx, "pveam", "list", storage)
	if err != nil {
		return nil, fmt.Errorf("pveam list %s: %w (output: %s)", storage, err, out)
	}

	var names []string
	prefix := storage + ":vztmpl/"
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.HasPrefix(fields[0], prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(fields[0], prefix))
	}
	return names, nil
}

// Download fetches a template onto the given storage.
func (c *Catalog) Download(ctx context.Context, storage, name string) error {
	out, err := c.Exec.Execute(ctx, "pveam", "download", storage, name)
	if err != nil {
		return fmt.Errorf("pveam download %s %s: %w (output: %s)", storage, name, err, out)
	}
	return nil
}

// Match returns the newest template name containing filter, or "" when
// none matches. Template names embed a sortable date-based version, so
// the lexical maximum is the newest build.
func Match(names []string, filter string) string {
	var candidates []string
	for _, n := range names {
		if strings.Contains(n, filter) {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[len(candidates)-1]
}

// parseCatalogLines extracts template names from pveam available output.
func parseCatalogLines(out string) []string {
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		names = append(names, fields[1])
	}
	return names
}

// VolID returns the full volume identifier for a template on a storage.
func VolID(storage, name string) string {
	return storage + ":vztmpl/" + name
}
