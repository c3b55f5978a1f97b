package pve

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pvemesh/pvemesh-ctl/internal/logging"
	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

// ErrVMIDInUse is returned by Create when the chosen VMID is already
// taken. The advisory allocator can lose a race; callers re-query the
// inventory and retry with a fresh VMID.
var ErrVMIDInUse = errors.New("vmid already in use")

// Client wraps the pct container-management CLI.
type Client struct {
	Exec system.CommandExecutor
	FS   system.FileSystem
}

// NewClient returns a Client using the default executor and filesystem.
func NewClient() *Client {
	return &Client{
		Exec: system.DefaultExecutor(),
		FS:   system.DefaultFS(),
	}
}

// CreateOptions holds the flags passed to pct create.
type CreateOptions struct {
	Template     string // template volume ID, e.g. local:vztmpl/archlinux-base_...
	Hostname     string
	MemoryMB     int
	SwapMB       int
	Cores        int
	DiskGB       int
	Storage      string
	Net0         string // pre-rendered network config string
	Unprivileged bool
	Features     string // e.g. "nesting=1,keyctl=1"
	OnBoot       bool
}

// Create creates a container. The create call doubles as the atomic claim
// on the VMID: Proxmox refuses to create over an existing container, and
// that refusal surfaces as ErrVMIDInUse.
func (c *Client) Create(ctx context.Context, vmid int, opts CreateOptions) error {
	args := []string{
		"create", strconv.Itoa(vmid), opts.Template,
		"--hostname", opts.Hostname,
		"--memory", strconv.Itoa(opts.MemoryMB),
		"--swap", strconv.Itoa(opts.SwapMB),
		"--cores", strconv.Itoa(opts.Cores),
		"--rootfs", fmt.Sprintf("%s:%d", opts.Storage, opts.DiskGB),
		"--net0", opts.Net0,
	}
	if opts.Unprivileged {
		args = append(args, "--unprivileged", "1")
	} else {
		args = append(args, "--unprivileged", "0")
	}
	if opts.Features != "" {
		args = append(args, "--features", opts.Features)
	}
	if opts.OnBoot {
		args = append(args, "--onboot", "1")
	}

	logging.Debug("creating container", "vmid", vmid, "template", opts.Template)

	out, err := c.Exec.Execute(ctx, "pct", args...)
	if err != nil {
		if strings.Contains(string(out), "already exists") {
			return fmt.Errorf("%w: %d", ErrVMIDInUse, vmid)
		}
		return fmt.Errorf("pct create %d: %w (output: %s)", vmid, err, out)
	}
	return nil
}

// Start starts a container.
func (c *Client) Start(ctx context.Context, vmid int) error {
	out, err := c.Exec.Execute(ctx, "pct", "start", strconv.Itoa(vmid))
	if err != nil {
		return fmt.Errorf("pct start %d: %w (output: %s)", vmid, err, out)
	}
	return nil
}

// Stop stops a container.
func (c *Client) Stop(ctx context.Context, vmid int) error {
	out, err := c.Exec.Execute(ctx, "pct", "stop", strconv.Itoa(vmid))
	if err != nil {
		return fmt.Errorf("pct stop %d: %w (output: %s)", vmid, err, out)
	}
	return nil
}

// Destroy removes a container and its volumes.
func (c *Client) Destroy(ctx context.Context, vmid int) error {
	out, err := c.Exec.Execute(ctx, "pct", "destroy", strconv.Itoa(vmid), "--purge")
	if err != nil {
		return fmt.Errorf("pct destroy %d: %w (output: %s)", vmid, err, out)
	}
	return nil
}

// Status returns the container status ("running", "stopped", ...).
func (c *Client) Status(ctx context.Context, vmid int) (string, error) {
	out, err := c.Exec.Execute(ctx, "pct", "status", strconv.Itoa(vmid))
	if err != nil {
		return "", fmt.Errorf("pct status %d: %w (output: %s)", vmid, err, out)
	}

	// Output: "status: running"
	for _, line := range strings.Split(string(out), "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "status:"); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", fmt.Errorf("pct status %d: unexpected output %q", vmid, out)
}

// Push copies a host file into the container.
func (c *Client) Push(ctx context.Context, vmid int, hostPath, destPath, perms string) error {
	args := []string{"push", strconv.Itoa(vmid), hostPath, destPath}
	if perms != "" {
		args = append(args, "--perms", perms)
	}
	out, err := c.Exec.Execute(ctx, "pct", args...)
	if err != nil {
		return fmt.Errorf("pct push %d %s: %w (output: %s)", vmid, destPath, err, out)
	}
	return nil
}

// ShellExec runs a shell command line inside the container.
func (c *Client) ShellExec(ctx context.Context, vmid int, script string) ([]byte, error) {
	logging.Debug("running in container", "vmid", vmid, "script", script)

	out, err := c.Exec.Execute(ctx, "pct", "exec", strconv.Itoa(vmid), "--", "sh", "-c", script)
	if err != nil {
		return out, fmt.Errorf("pct exec %d: %w (output: %s)", vmid, err, out)
	}
	return out, nil
}

// ConfPath returns the host-side config file for a container.
func ConfPath(vmid int) string {
	return fmt.Sprintf("/etc/pve/lxc/%d.conf", vmid)
}

// AppendConf appends a raw stanza to the host-side container config.
// Proxmox has no pct flag for lxc.* passthrough keys, so the stanza is
// appended to /etc/pve/lxc/<vmid>.conf directly.
func (c *Client) AppendConf(vmid int, stanza string) error {
	path := ConfPath(vmid)

	existing, err := c.FS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(existing)
	if !strings.HasSuffix(content, "\n") && content != "" {
		content += "\n"
	}
	content += strings.TrimSpace(stanza) + "\n"

	if err := c.FS.WriteFile(path, []byte(content), 0640); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
