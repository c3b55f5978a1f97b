package pve

import (
	"context"
	"errors"
	"testing"

	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

func TestCatalog_Available(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("pveam available", []byte(
		"system          alpine-3.19-default_20240207_amd64.tar.xz\n"+
			"system          archlinux-base_20240911-1_amd64.tar.zst\n"+
			"system          debian-12-standard_12.7-1_amd64.tar.zst\n"), nil)

	c := &Catalog{Exec: exec}
	names, err := c.Available(context.Background())
	if err != nil {
		t.Fatalf("Available failed: %v", err)
	}

	if len(names) != 3 {
		t.Fatalf("expected 3 templates, got %d: %v", len(names), names)
	}
	if names[1] != "archlinux-base_20240911-1_amd64.tar.zst" {
		t.Errorf("unexpected template name: %q", names[1])
	}
}

func TestCatalog_Downloaded(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("pveam list local", []byte(
		"NAME                                                SIZE\n"+
			"local:vztmpl/archlinux-base_20240911-1_amd64.tar.zst  828.81MB\n"), nil)

	c := &Catalog{Exec: exec}
	names, err := c.Downloaded(context.Background(), "local")
	if err != nil {
		t.Fatalf("Downloaded failed: %v", err)
	}

	if len(names) != 1 || names[0] != "archlinux-base_20240911-1_amd64.tar.zst" {
		t.Errorf("unexpected downloaded templates: %v", names)
	}
}

func TestCatalog_DownloadErrorsSurface(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("pveam download", []byte("404 not found"), errors.New("exit status 255"))

	c := &Catalog{Exec: exec}
	if err := c.Download(context.Background(), "local", "nope.tar.zst"); err == nil {
		t.Fatal("Download must surface pveam failures")
	}
}

func TestMatch(t *testing.T) {
	names := []string{
		"alpine-3.19-default_20240207_amd64.tar.xz",
		"archlinux-base_20240501-1_amd64.tar.zst",
		"archlinux-base_20240911-1_amd64.tar.zst",
	}

	tests := []struct {
		filter string
		want   string
	}{
		{"archlinux-base", "archlinux-base_20240911-1_amd64.tar.zst"},
		{"alpine", "alpine-3.19-default_20240207_amd64.tar.xz"},
		{"ubuntu", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			if got := Match(names, tt.filter); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.filter, got, tt.want)
			}
		})
	}
}

func TestVolID(t *testing.T) {
	got := VolID("local", "archlinux-base_20240911-1_amd64.tar.zst")
	want := "local:vztmpl/archlinux-base_20240911-1_amd64.tar.zst"
	if got != want {
		t.Errorf("VolID = %q, want %q", got, want)
	}
}
