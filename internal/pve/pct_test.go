package pve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

func testClient() (*Client, *system.MockExecutor, *system.MockFS) {
	exec := system.NewMockExecutor()
	fs := system.NewMockFS()
	return &Client{Exec: exec, FS: fs}, exec, fs
}

func TestClient_CreateArgs(t *testing.T) {
	c, exec, _ := testClient()

	opts := CreateOptions{
		Template:     "local:vztmpl/archlinux-base_20240911-1_amd64.tar.zst",
		Hostname:     "meshbox",
		MemoryMB:     2048,
		SwapMB:       512,
		Cores:        2,
		DiskGB:       8,
		Storage:      "local-lvm",
		Net0:         "name=eth0,bridge=vmbr0,ip=dhcp,firewall=1,tag=60",
		Unprivileged: true,
		Features:     "nesting=1,keyctl=1",
		OnBoot:       true,
	}

	if err := c.Create(context.Background(), 106, opts); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	last, _ := exec.LastCommand()
	line := last.Line()

	wantParts := []string{
		"pct create 106 local:vztmpl/archlinux-base_20240911-1_amd64.tar.zst",
		"--hostname meshbox",
		"--memory 2048",
		"--swap 512",
		"--cores 2",
		"--rootfs local-lvm:8",
		"--net0 name=eth0,bridge=vmbr0,ip=dhcp,firewall=1,tag=60",
		"--unprivileged 1",
		"--features nesting=1,keyctl=1",
		"--onboot 1",
	}
	for _, part := range wantParts {
		if !strings.Contains(line, part) {
			t.Errorf("command line missing %q:\n%s", part, line)
		}
	}
}

func TestClient_CreatePrivileged(t *testing.T) {
	c, exec, _ := testClient()

	opts := CreateOptions{Template: "t", Hostname: "h", Storage: "local-lvm", DiskGB: 8}
	if err := c.Create(context.Background(), 106, opts); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	last, _ := exec.LastCommand()
	if !strings.Contains(last.Line(), "--unprivileged 0") {
		t.Errorf("privileged create should pass --unprivileged 0: %s", last.Line())
	}
}

func TestClient_CreateCollision(t *testing.T) {
	c, exec, _ := testClient()
	exec.AddResponse("pct create", []byte("unable to create CT 106 - CT 106 already exists on node 'pve'"), errors.New("exit status 255"))

	err := c.Create(context.Background(), 106, CreateOptions{Template: "t", Hostname: "h", Storage: "s", DiskGB: 8})
	if !errors.Is(err, ErrVMIDInUse) {
		t.Errorf("collision should map to ErrVMIDInUse, got %v", err)
	}
}

func TestClient_Status(t *testing.T) {
	c, exec, _ := testClient()
	exec.AddResponse("pct status 106", []byte("status: running\n"), nil)

	status, err := c.Status(context.Background(), 106)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != "running" {
		t.Errorf("Status = %q, want running", status)
	}
}

func TestClient_StatusUnexpectedOutput(t *testing.T) {
	c, exec, _ := testClient()
	exec.AddResponse("pct status", []byte("garbage"), nil)

	if _, err := c.Status(context.Background(), 106); err == nil {
		t.Error("Status should reject unexpected output")
	}
}

func TestClient_Push(t *testing.T) {
	c, exec, _ := testClient()

	if err := c.Push(context.Background(), 106, "/var/lib/pvemesh/meshbox/docker-compose.yml", "/opt/pvemesh/docker-compose.yml", "0644"); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	last, _ := exec.LastCommand()
	want := "pct push 106 /var/lib/pvemesh/meshbox/docker-compose.yml /opt/pvemesh/docker-compose.yml --perms 0644"
	if last.Line() != want {
		t.Errorf("Push command = %q, want %q", last.Line(), want)
	}
}

func TestClient_ShellExec(t *testing.T) {
	c, exec, _ := testClient()

	if _, err := c.ShellExec(context.Background(), 106, "pacman -Sy --noconfirm docker"); err != nil {
		t.Fatalf("ShellExec failed: %v", err)
	}

	last, _ := exec.LastCommand()
	want := "pct exec 106 -- sh -c pacman -Sy --noconfirm docker"
	if last.Line() != want {
		t.Errorf("ShellExec command = %q, want %q", last.Line(), want)
	}
}

func TestClient_AppendConf(t *testing.T) {
	c, _, fs := testClient()
	fs.AddFile("/etc/pve/lxc/106.conf", []byte("arch: amd64\nhostname: meshbox"))

	stanza := "lxc.cgroup2.devices.allow: c 10:200 rwm\nlxc.mount.entry: /dev/net/tun dev/net/tun none bind,create=file"
	if err := c.AppendConf(106, stanza); err != nil {
		t.Fatalf("AppendConf failed: %v", err)
	}

	data, _ := fs.GetFile("/etc/pve/lxc/106.conf")
	want := "arch: amd64\nhostname: meshbox\n" + stanza + "\n"
	if string(data) != want {
		t.Errorf("AppendConf content = %q, want %q", data, want)
	}
}

func TestClient_AppendConfMissingFile(t *testing.T) {
	c, _, _ := testClient()

	if err := c.AppendConf(999, "lxc.mount.entry: x"); err == nil {
		t.Error("AppendConf should fail when the container config does not exist")
	}
}

func TestConfPath(t *testing.T) {
	if got := ConfPath(106); got != "/etc/pve/lxc/106.conf" {
		t.Errorf("ConfPath = %q", got)
	}
}
