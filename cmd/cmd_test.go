package cmd

import (
	"testing"

	"github.com/pvemesh/pvemesh-ctl/internal/errors"
	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

func TestParseVMIDArg(t *testing.T) {
	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{"106", 106, false},
		{"0", 0, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"10.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseVMIDArg(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseVMIDArg(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseVMIDArg(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"provision": false,
		"status":    false,
		"destroy":   false,
		"ps":        false,
		"templates": false,
	}

	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestProvision_MissingSetupKeyFailsBeforeAnyCommand(t *testing.T) {
	exec := system.NewMockExecutor()
	system.SetDefaultExecutor(exec)
	defer system.ResetDefaults()

	t.Setenv("PVEMESH_SETUP_KEY", "")

	rootCmd.SetArgs([]string{"provision", "--config", t.TempDir() + "/absent.toml"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("provision must fail without a setup key")
	}
	if errors.GetExitCode(err) != errors.ExitConfigError {
		t.Errorf("exit code = %d, want ExitConfigError", errors.GetExitCode(err))
	}

	if len(exec.Commands) != 0 {
		t.Errorf("no external command may run before validation, got %v", exec.CommandLines())
	}
}
