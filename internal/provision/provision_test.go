package provision

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pvemesh/pvemesh-ctl/internal/config"
	"github.com/pvemesh/pvemesh-ctl/internal/errors"
	"github.com/pvemesh/pvemesh-ctl/internal/pve"
	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

const testInventory = `[
  {"id": "lxc/100", "type": "lxc", "vmid": 100},
  {"id": "lxc/105", "type": "lxc", "vmid": 105},
  {"id": "lxc/5", "type": "lxc", "vmid": 5},
  {"id": "qemu/900", "type": "qemu", "vmid": 900}
]`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.SetupKey = "tskey-auth-test"
	cfg.VLANTag = 60
	cfg.KeysURL = "https://github.com/alice.keys"
	return cfg
}

func testProvisioner(cfg *config.Config) (*Provisioner, *system.MockExecutor, *system.MockFS) {
	exec := system.NewMockExecutor()
	fs := system.NewMockFS()

	exec.AddResponse("pveam list local", []byte(
		"local:vztmpl/archlinux-base_20240911-1_amd64.tar.zst  828.81MB\n"), nil)
	exec.AddResponse("pvesh get /cluster/resources", []byte(testInventory), nil)
	exec.AddResponse("pct status 106", []byte("status: running\n"), nil)
	fs.AddFile("/etc/pve/lxc/106.conf", []byte("arch: amd64\n"))

	p := New(cfg, exec, fs)
	p.ReadyTimeout = 100 * time.Millisecond
	p.ReadyInterval = time.Millisecond
	return p, exec, fs
}

func TestProvision_HappyPath(t *testing.T) {
	cfg := testConfig()
	p, exec, fs := testProvisioner(cfg)

	result, err := p.Provision(context.Background())
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}

	if result.VMID != 106 {
		t.Errorf("VMID = %d, want 106 (max of {100,105,5} + 1)", result.VMID)
	}
	if len(result.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %+v", result.Warnings())
	}

	lines := strings.Join(exec.CommandLines(), "\n")
	for _, want := range []string{
		"pct create 106 local:vztmpl/archlinux-base_20240911-1_amd64.tar.zst",
		"--net0 name=eth0,bridge=vmbr0,ip=dhcp,firewall=1,tag=60",
		"pct start 106",
		"pct exec 106 -- sh -c pacman -Syu --noconfirm && pacman -S --noconfirm docker docker-compose openssh curl",
		"pct exec 106 -- sh -c systemctl enable --now docker sshd",
		"pct push 106 /var/lib/pvemesh/meshbox/10-pvemesh.conf /etc/ssh/sshd_config.d/10-pvemesh.conf --perms 0644",
		"pct exec 106 -- sh -c systemctl restart sshd",
		"curl -fsSL https://github.com/alice.keys > /root/.ssh/authorized_keys",
		"pct push 106 /var/lib/pvemesh/meshbox/docker-compose.yml /opt/pvemesh/docker-compose.yml --perms 0600",
		"pct exec 106 -- sh -c docker compose -f /opt/pvemesh/docker-compose.yml up -d",
	} {
		if !strings.Contains(lines, want) {
			t.Errorf("command log missing %q:\n%s", want, lines)
		}
	}

	// tun passthrough lands in the host-side config, not a command
	conf, _ := fs.GetFile("/etc/pve/lxc/106.conf")
	if !strings.Contains(string(conf), "lxc.mount.entry: /dev/net/tun") {
		t.Errorf("host config missing tun stanza: %q", conf)
	}

	// staged compose carries the setup key
	compose, ok := fs.GetFile("/var/lib/pvemesh/meshbox/docker-compose.yml")
	if !ok || !strings.Contains(string(compose), "TS_AUTHKEY=tskey-auth-test") {
		t.Errorf("staged compose missing setup key: %q", compose)
	}
}

func TestProvision_TemplateNotFoundIsFatal(t *testing.T) {
	cfg := testConfig()
	cfg.TemplateFilter = "ubuntu-unobtainium"
	p, exec, _ := testProvisioner(cfg)
	exec.AddResponse("pveam available", []byte("system  archlinux-base_20240911-1_amd64.tar.zst\n"), nil)

	_, err := p.Provision(context.Background())
	if err == nil {
		t.Fatal("Provision should fail when no template matches")
	}
	if errors.GetExitCode(err) != errors.ExitTemplateNotFound {
		t.Errorf("exit code = %d, want ExitTemplateNotFound", errors.GetExitCode(err))
	}

	// Nothing should have been created.
	for _, line := range exec.CommandLines() {
		if strings.HasPrefix(line, "pct create") {
			t.Errorf("no container should be created after template lookup failure, got %q", line)
		}
	}
}

func TestProvision_InventoryFailureIsFatal(t *testing.T) {
	cfg := testConfig()
	p, exec, _ := testProvisioner(cfg)
	exec.AddResponse("pvesh get /cluster/resources", []byte("permission denied"), stderrors.New("exit status 2"))

	_, err := p.Provision(context.Background())
	if err == nil {
		t.Fatal("Provision must fail loudly when the inventory query fails")
	}
	if errors.GetExitCode(err) != errors.ExitInventoryFailed {
		t.Errorf("exit code = %d, want ExitInventoryFailed", errors.GetExitCode(err))
	}
}

func TestProvision_BootstrapFailureAbortsBeforeDeploy(t *testing.T) {
	cfg := testConfig()
	p, exec, _ := testProvisioner(cfg)
	exec.AddResponse("pct exec 106 -- sh -c pacman", []byte("error: failed to synchronize"), stderrors.New("exit status 1"))

	result, err := p.Provision(context.Background())
	if err == nil {
		t.Fatal("Provision must not report success when package bootstrap fails")
	}
	if errors.GetExitCode(err) != errors.ExitDeployFailed {
		t.Errorf("exit code = %d, want ExitDeployFailed", errors.GetExitCode(err))
	}

	for _, line := range exec.CommandLines() {
		if strings.Contains(line, "docker compose") {
			t.Errorf("compose must not run after a fatal bootstrap failure, got %q", line)
		}
	}

	last := result.Steps[len(result.Steps)-1]
	if last.Name != "bootstrap-packages" || last.Err == nil {
		t.Errorf("last recorded step = %+v, want failed bootstrap-packages", last)
	}
}

func TestProvision_KeysFetchFailureIsAdvisory(t *testing.T) {
	cfg := testConfig()
	p, exec, _ := testProvisioner(cfg)
	exec.AddResponse("pct exec 106 -- sh -c mkdir -p /root/.ssh", []byte("curl: (22) 404"), stderrors.New("exit status 22"))

	result, err := p.Provision(context.Background())
	if err != nil {
		t.Fatalf("advisory key fetch failure must not abort the run: %v", err)
	}

	warnings := result.Warnings()
	if len(warnings) != 1 || warnings[0].Name != "authorized-keys" {
		t.Errorf("expected one authorized-keys warning, got %+v", warnings)
	}

	// The mesh deploy still ran.
	lines := strings.Join(exec.CommandLines(), "\n")
	if !strings.Contains(lines, "docker compose -f /opt/pvemesh/docker-compose.yml up -d") {
		t.Error("deploy-mesh should still run after an advisory failure")
	}
}

func TestProvision_NoKeysURLSkipsFetch(t *testing.T) {
	cfg := testConfig()
	cfg.KeysURL = ""
	p, exec, _ := testProvisioner(cfg)

	result, err := p.Provision(context.Background())
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}

	var found *StepResult
	for i := range result.Steps {
		if result.Steps[i].Name == "authorized-keys" {
			found = &result.Steps[i]
		}
	}
	if found == nil || !found.Skipped || found.Err != nil {
		t.Errorf("authorized-keys step should be skipped, got %+v", found)
	}

	for _, line := range exec.CommandLines() {
		if strings.Contains(line, "curl") && strings.Contains(line, ".keys") {
			t.Errorf("no key fetch should run without a keys URL, got %q", line)
		}
	}
}

// racingExecutor simulates a concurrent provisioner stealing the first
// allocated VMID: the first create fails with "already exists" and the
// re-queried inventory includes the stolen ID.
type racingExecutor struct {
	mu             sync.Mutex
	commands       []string
	inventoryCalls int
}

func (e *racingExecutor) record(name string, args []string) string {
	line := strings.Join(append([]string{name}, args...), " ")
	e.commands = append(e.commands, line)
	return line
}

func (e *racingExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	line := e.record(name, args)

	switch {
	case strings.HasPrefix(line, "pveam list"):
		return []byte("local:vztmpl/archlinux-base_20240911-1_amd64.tar.zst  828.81MB\n"), nil
	case strings.HasPrefix(line, "pvesh get /cluster/resources"):
		e.inventoryCalls++
		if e.inventoryCalls == 1 {
			return []byte(`[{"id": "lxc/105", "type": "lxc"}]`), nil
		}
		return []byte(`[{"id": "lxc/105", "type": "lxc"}, {"id": "lxc/106", "type": "lxc"}]`), nil
	case strings.HasPrefix(line, "pct create 106"):
		return []byte("CT 106 already exists on node 'pve'"), stderrors.New("exit status 255")
	case strings.HasPrefix(line, "pct status"):
		return []byte("status: running\n"), nil
	default:
		return nil, nil
	}
}

func (e *racingExecutor) ExecuteWithStdin(ctx context.Context, stdin string, name string, args ...string) ([]byte, error) {
	return e.Execute(ctx, name, args...)
}

func TestProvision_RetriesOnVMIDCollision(t *testing.T) {
	cfg := testConfig()
	exec := &racingExecutor{}
	fs := system.NewMockFS()
	fs.AddFile("/etc/pve/lxc/107.conf", []byte("arch: amd64\n"))

	p := New(cfg, exec, fs)
	p.ReadyTimeout = 100 * time.Millisecond
	p.ReadyInterval = time.Millisecond

	result, err := p.Provision(context.Background())
	if err != nil {
		t.Fatalf("Provision should recover from a VMID collision: %v", err)
	}
	if result.VMID != 107 {
		t.Errorf("VMID = %d, want 107 after retry", result.VMID)
	}
	if exec.inventoryCalls != 2 {
		t.Errorf("inventory should be re-queried on collision, got %d calls", exec.inventoryCalls)
	}
}

func TestProvision_CollisionRetriesAreBounded(t *testing.T) {
	cfg := testConfig()
	p, exec, _ := testProvisioner(cfg)
	exec.AddResponse("pct create", []byte("CT 106 already exists"), stderrors.New("exit status 255"))

	_, err := p.Provision(context.Background())
	if err == nil {
		t.Fatal("Provision must give up after bounded collision retries")
	}
	if !stderrors.Is(err, pve.ErrVMIDInUse) {
		t.Errorf("error chain should carry ErrVMIDInUse, got %v", err)
	}
}
