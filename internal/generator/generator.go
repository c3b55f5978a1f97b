// Package generator renders the files pushed into a provisioned
// container: the mesh client compose definition and the sshd drop-in.
// Files are staged on the host under the state directory before pct push.
package generator

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/pvemesh/pvemesh-ctl/internal/system"
)

// Compose renders the container-compose definition for the mesh client.
func Compose(data ComposeData) (string, error) {
	var buf bytes.Buffer
	if err := composeTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render compose definition: %w", err)
	}
	return buf.String(), nil
}

// SSHDConfig renders the sshd drop-in config.
func SSHDConfig(data SSHDData) (string, error) {
	var buf bytes.Buffer
	if err := sshdTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render sshd config: %w", err)
	}
	return buf.String(), nil
}

// Stage writes content to <stateDir>/<hostname>/<name> and returns the
// host path. The joined path is resolved with securejoin so a hostile
// hostname cannot escape the state directory.
func Stage(fsys system.FileSystem, stateDir, hostname, name string, content string, perm fs.FileMode) (string, error) {
	rel := filepath.Join(hostname, name)
	path, err := securejoin.SecureJoin(stateDir, rel)
	if err != nil {
		return "", fmt.Errorf("invalid staging path for %q: %w", rel, err)
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	if err := fsys.WriteFile(path, []byte(content), perm); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}
	return path, nil
}
