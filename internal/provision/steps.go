package provision

import (
	"context"
	stderrors "errors"
	"fmt"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/pvemesh/pvemesh-ctl/internal/errors"
	"github.com/pvemesh/pvemesh-ctl/internal/generator"
	"github.com/pvemesh/pvemesh-ctl/internal/logging"
	"github.com/pvemesh/pvemesh-ctl/internal/pve"
)

// errSkipped marks an advisory step that had nothing to do.
var errSkipped = stderrors.New("step skipped")

// In-container paths.
const (
	composeDir    = "/opt/pvemesh"
	composePath   = composeDir + "/docker-compose.yml"
	sshdDropin    = "/etc/ssh/sshd_config.d/10-pvemesh.conf"
	authKeysPath  = "/root/.ssh/authorized_keys"
	bootstrapPkgs = "docker docker-compose openssh curl"
)

// ensureTemplate makes sure an OS template matching the configured filter
// is present on the template storage, refreshing and downloading the
// catalog entry if needed. A filter with no catalog match is fatal: the
// original recipe's silent empty-template default produced broken pct
// create calls.
func (p *Provisioner) ensureTemplate(ctx context.Context) error {
	downloaded, err := p.catalog.Downloaded(ctx, p.cfg.TemplateStorage)
	if err != nil {
		return errors.Wrap(errors.ExitTemplateNotFound, "template storage listing failed", err)
	}

	if name := pve.Match(downloaded, p.cfg.TemplateFilter); name != "" {
		p.templateVol = pve.VolID(p.cfg.TemplateStorage, name)
		logging.Debug("template already present", "volid", p.templateVol)
		return nil
	}

	if err := p.catalog.Update(ctx); err != nil {
		return errors.Wrap(errors.ExitTemplateNotFound, "template catalog refresh failed", err)
	}

	available, err := p.catalog.Available(ctx)
	if err != nil {
		return errors.Wrap(errors.ExitTemplateNotFound, "template catalog listing failed", err)
	}

	name := pve.Match(available, p.cfg.TemplateFilter)
	if name == "" {
		return errors.TemplateNotFound(p.cfg.TemplateFilter)
	}

	logging.UserInfo("Downloading template %s...", name)
	if err := p.catalog.Download(ctx, p.cfg.TemplateStorage, name); err != nil {
		return errors.Wrap(errors.ExitTemplateNotFound, "template download failed", err)
	}

	p.templateVol = pve.VolID(p.cfg.TemplateStorage, name)
	return nil
}

// createContainer allocates a VMID and creates the container. The
// allocator is advisory, so pct create is the authoritative claim: on a
// VMID collision the inventory is re-queried and the create retried with
// a fresh VMID, up to CreateAttempts times.
func (p *Provisioner) createContainer(ctx context.Context) error {
	opts := pve.CreateOptions{
		Template:     p.templateVol,
		Hostname:     p.cfg.Hostname,
		MemoryMB:     p.cfg.MemoryMB,
		SwapMB:       p.cfg.SwapMB,
		Cores:        p.cfg.Cores,
		DiskGB:       p.cfg.DiskGB,
		Storage:      p.cfg.Storage,
		Net0:         pve.NetConfig(p.cfg.Bridge, p.cfg.VLANTag),
		Unprivileged: p.cfg.Unprivileged,
		Features:     "nesting=1,keyctl=1",
		OnBoot:       true,
	}

	var lastErr error
	for attempt := 1; attempt <= p.CreateAttempts; attempt++ {
		resources, err := pve.Inventory(ctx, p.exec)
		if err != nil {
			return errors.InventoryFailed(err)
		}

		vmid := pve.NextVMID(resources)
		logging.Debug("allocated vmid", "vmid", vmid, "attempt", attempt)

		err = p.client.Create(ctx, vmid, opts)
		if err == nil {
			p.vmid = vmid
			return nil
		}
		if !stderrors.Is(err, pve.ErrVMIDInUse) {
			return errors.ContainerFailed("create", err)
		}

		logging.Warn("vmid collision, retrying with fresh inventory", "vmid", vmid)
		lastErr = err
	}

	return errors.ContainerFailed("create", fmt.Errorf("gave up after %d attempts: %w", p.CreateAttempts, lastErr))
}

// tunPassthrough appends the /dev/net/tun stanza to the host-side
// container config.
func (p *Provisioner) tunPassthrough(ctx context.Context) error {
	if err := p.client.AppendConf(p.vmid, generator.TunConf); err != nil {
		return errors.ContainerFailed("configure", err)
	}
	return nil
}

// startContainer starts the container and polls until it is running.
func (p *Provisioner) startContainer(ctx context.Context) error {
	if err := p.client.Start(ctx, p.vmid); err != nil {
		return errors.ContainerFailed("start", err)
	}
	if err := p.client.WaitReady(ctx, p.vmid, p.ReadyTimeout, p.ReadyInterval); err != nil {
		return errors.NotReady(p.vmid, err)
	}
	return nil
}

// bootstrapPackages installs the base tooling inside the container and
// enables the docker and ssh daemons.
func (p *Provisioner) bootstrapPackages(ctx context.Context) error {
	if _, err := p.client.ShellExec(ctx, p.vmid, "pacman -Syu --noconfirm && pacman -S --noconfirm "+bootstrapPkgs); err != nil {
		return errors.DeployFailed("bootstrap-packages", err)
	}
	if _, err := p.client.ShellExec(ctx, p.vmid, "systemctl enable --now docker sshd"); err != nil {
		return errors.DeployFailed("enable-services", err)
	}
	return nil
}

// configureSSHD stages the sshd drop-in, pushes it into the container and
// restarts sshd.
func (p *Provisioner) configureSSHD(ctx context.Context) error {
	content, err := generator.SSHDConfig(generator.SSHDData{Port: p.cfg.SSHPort})
	if err != nil {
		return errors.DeployFailed("configure-sshd", err)
	}

	hostPath, err := generator.Stage(p.fs, p.cfg.StateDir, p.cfg.Hostname, "10-pvemesh.conf", content, 0644)
	if err != nil {
		return errors.DeployFailed("configure-sshd", err)
	}

	if err := p.client.Push(ctx, p.vmid, hostPath, sshdDropin, "0644"); err != nil {
		return errors.DeployFailed("configure-sshd", err)
	}
	if _, err := p.client.ShellExec(ctx, p.vmid, "systemctl restart sshd"); err != nil {
		return errors.DeployFailed("restart-sshd", err)
	}
	return nil
}

// fetchAuthorizedKeys pulls public keys from the configured key-hosting
// endpoint into the container's authorized_keys. Advisory: SSH key setup
// failing should not abandon an otherwise working mesh node.
func (p *Provisioner) fetchAuthorizedKeys(ctx context.Context) error {
	if p.cfg.KeysURL == "" {
		return errSkipped
	}

	fetch := shellquote.Join("curl", "-fsSL", p.cfg.KeysURL)
	script := fmt.Sprintf("mkdir -p /root/.ssh && %s > %s && chmod 600 %s", fetch, authKeysPath, authKeysPath)

	if _, err := p.client.ShellExec(ctx, p.vmid, script); err != nil {
		return errors.DeployFailed("authorized-keys", err)
	}
	return nil
}

// deployMesh stages the compose definition, pushes it into the container
// and brings the mesh client up.
func (p *Provisioner) deployMesh(ctx context.Context) error {
	content, err := generator.Compose(generator.ComposeData{
		Hostname: p.cfg.Hostname,
		SetupKey: p.cfg.SetupKey,
	})
	if err != nil {
		return errors.DeployFailed("deploy-mesh", err)
	}

	hostPath, err := generator.Stage(p.fs, p.cfg.StateDir, p.cfg.Hostname, "docker-compose.yml", content, 0600)
	if err != nil {
		return errors.DeployFailed("deploy-mesh", err)
	}

	if _, err := p.client.ShellExec(ctx, p.vmid, "mkdir -p "+composeDir); err != nil {
		return errors.DeployFailed("deploy-mesh", err)
	}
	if err := p.client.Push(ctx, p.vmid, hostPath, composePath, "0600"); err != nil {
		return errors.DeployFailed("deploy-mesh", err)
	}

	up := shellquote.Join("docker", "compose", "-f", composePath, "up", "-d")
	if _, err := p.client.ShellExec(ctx, p.vmid, up); err != nil {
		return errors.DeployFailed("compose-up", err)
	}
	return nil
}
