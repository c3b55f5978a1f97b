// Package provision runs the container provisioning sequence as a series
// of explicit, checked steps. Fatal steps abort the run; advisory steps
// record a warning and continue. The runner never reports success when a
// fatal step failed.
package provision

import (
	"context"
	"time"

	"github.com/pvemesh/pvemesh-ctl/internal/config"
	"github.com/pvemesh/pvemesh-ctl/internal/logging"
	"github.com/pvemesh/pvemesh-ctl/internal/pve"
	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

// step is one provisioning action.
type step struct {
	name     string
	advisory bool
	run      func(ctx context.Context) error
}

// StepResult records the outcome of one step.
type StepResult struct {
	Name     string
	Advisory bool
	Skipped  bool
	Err      error
}

// Result is the outcome of a provisioning run.
type Result struct {
	VMID     int
	Hostname string
	Template string
	Steps    []StepResult
}

// Warnings returns the advisory failures collected during the run.
func (r *Result) Warnings() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Advisory && s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Provisioner executes the provisioning sequence against a Proxmox host.
type Provisioner struct {
	cfg     *config.Config
	client  *pve.Client
	catalog *pve.Catalog
	exec    system.CommandExecutor
	fs      system.FileSystem

	// ReadyTimeout and ReadyInterval bound the container readiness poll.
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration

	// CreateAttempts bounds the allocate-create retry loop. The VMID
	// allocator is advisory, so a concurrent provisioner can win the
	// race; each retry re-queries the inventory.
	CreateAttempts int

	// run state
	vmid        int
	templateVol string
}

// New creates a Provisioner with the given dependencies.
func New(cfg *config.Config, exec system.CommandExecutor, fs system.FileSystem) *Provisioner {
	return &Provisioner{
		cfg:            cfg,
		client:         &pve.Client{Exec: exec, FS: fs},
		catalog:        &pve.Catalog{Exec: exec},
		exec:           exec,
		fs:             fs,
		ReadyTimeout:   pve.DefaultReadyTimeout,
		ReadyInterval:  pve.DefaultReadyInterval,
		CreateAttempts: 3,
	}
}

// Provision runs the full sequence. The returned Result is populated even
// on failure so callers can report which steps completed.
func (p *Provisioner) Provision(ctx context.Context) (*Result, error) {
	steps := []step{
		{name: "ensure-template", run: p.ensureTemplate},
		{name: "create-container", run: p.createContainer},
		{name: "tun-passthrough", run: p.tunPassthrough},
		{name: "start-container", run: p.startContainer},
		{name: "bootstrap-packages", run: p.bootstrapPackages},
		{name: "configure-sshd", run: p.configureSSHD},
		{name: "authorized-keys", advisory: true, run: p.fetchAuthorizedKeys},
		{name: "deploy-mesh", run: p.deployMesh},
	}

	result := &Result{Hostname: p.cfg.Hostname}

	for _, s := range steps {
		logging.Debug("running step", "step", s.name)
		err := s.run(ctx)

		sr := StepResult{Name: s.name, Advisory: s.advisory, Err: err}
		if err == errSkipped {
			sr.Err = nil
			sr.Skipped = true
		}
		result.Steps = append(result.Steps, sr)
		result.VMID = p.vmid
		result.Template = p.templateVol

		if sr.Err != nil {
			if s.advisory {
				logging.Warn("advisory step failed", "step", s.name, "error", sr.Err)
				continue
			}
			return result, sr.Err
		}
	}

	return result, nil
}
