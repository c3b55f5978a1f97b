package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/BurntSushi/toml"
)

// hostnameRegex validates container hostnames.
// Names must start with a lowercase letter or digit, followed by lowercase
// letters, digits, or hyphens. Maximum length is 63 characters (DNS label limit).
var hostnameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

const (
	// DefaultConfigPath is the optional host configuration file.
	DefaultConfigPath = "/etc/pvemesh/config.toml"

	// DefaultStateDir holds staged files generated before pushing them
	// into a container.
	DefaultStateDir = "/var/lib/pvemesh"

	// EnvPrefix is the prefix of all environment overrides.
	EnvPrefix = "PVEMESH_"
)

// Config holds every provisioning input. Each field has a documented
// default and an environment override; the setup key is the only
// required input.
type Config struct {
	// SetupKey is the VPN mesh pre-authentication key handed to the
	// client container. Required; validation fails fast without it.
	SetupKey string `toml:"setup_key"`

	// Hostname is the container hostname. Default "meshbox".
	Hostname string `toml:"hostname"`

	// VLANTag partitions the bridge network; 0 means untagged. Default 0.
	VLANTag int `toml:"vlan_tag"`

	// Bridge is the network bridge the container attaches to. Default "vmbr0".
	Bridge string `toml:"bridge"`

	// Storage is the storage pool for the container root filesystem.
	// Default "local-lvm".
	Storage string `toml:"storage"`

	// TemplateStorage is the storage holding downloaded OS templates.
	// Default "local".
	TemplateStorage string `toml:"template_storage"`

	// TemplateFilter selects the OS template from the pveam catalog.
	// Default "archlinux-base".
	TemplateFilter string `toml:"template"`

	// MemoryMB is the container memory limit in MiB. Default 2048.
	MemoryMB int `toml:"memory"`

	// SwapMB is the container swap in MiB. Default 512.
	SwapMB int `toml:"swap"`

	// DiskGB is the root filesystem size in GiB. Default 8.
	DiskGB int `toml:"disk"`

	// Cores is the CPU core count. Default 2.
	Cores int `toml:"cores"`

	// SSHPort is the in-container sshd listen port. Default 22.
	SSHPort int `toml:"ssh_port"`

	// Unprivileged controls the container privilege mode. Default true.
	Unprivileged bool `toml:"unprivileged"`

	// KeysURL is a public key-hosting endpoint (e.g. a forge's
	// /<user>.keys URL) fetched into the container's authorized_keys.
	// Empty skips the fetch. Default "".
	KeysURL string `toml:"keys_url"`

	// StateDir holds staged generated files. Default /var/lib/pvemesh.
	StateDir string `toml:"state_dir"`
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		Hostname:        "meshbox",
		Bridge:          "vmbr0",
		Storage:         "local-lvm",
		TemplateStorage: "local",
		TemplateFilter:  "archlinux-base",
		MemoryMB:        2048,
		SwapMB:          512,
		DiskGB:          8,
		Cores:           2,
		SSHPort:         22,
		Unprivileged:    true,
		StateDir:        DefaultStateDir,
	}
}

// Load builds the effective configuration: documented defaults, then the
// optional TOML file at path, then environment overrides. The returned
// config is validated before any side-effecting call is made.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays PVEMESH_* environment variables onto the config.
func (c *Config) applyEnv() error {
	envString(&c.SetupKey, "SETUP_KEY")
	envString(&c.Hostname, "HOSTNAME")
	envString(&c.Bridge, "BRIDGE")
	envString(&c.Storage, "STORAGE")
	envString(&c.TemplateStorage, "TEMPLATE_STORAGE")
	envString(&c.TemplateFilter, "TEMPLATE")
	envString(&c.KeysURL, "KEYS_URL")

	for _, v := range []struct {
		dst *int
		key string
	}{
		{&c.VLANTag, "VLAN_TAG"},
		{&c.MemoryMB, "MEMORY"},
		{&c.SwapMB, "SWAP"},
		{&c.DiskGB, "DISK"},
		{&c.Cores, "CORES"},
		{&c.SSHPort, "SSH_PORT"},
	} {
		if err := envInt(v.dst, v.key); err != nil {
			return err
		}
	}

	if err := envBool(&c.Unprivileged, "UNPRIVILEGED"); err != nil {
		return err
	}

	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %q is not an integer", EnvPrefix, key, v)
	}
	*dst = n
	return nil
}

func envBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %q is not a boolean", EnvPrefix, key, v)
	}
	*dst = b
	return nil
}

// Validate checks that the Config is usable. It runs before any external
// command is issued, so a bad input never leaves a half-provisioned container.
func (c *Config) Validate() error {
	if c.SetupKey == "" {
		return fmt.Errorf("setup key is required (set %sSETUP_KEY)", EnvPrefix)
	}
	if !hostnameRegex.MatchString(c.Hostname) {
		return fmt.Errorf("invalid hostname %q: must be a lowercase DNS label of at most 63 characters", c.Hostname)
	}
	if c.VLANTag < 0 || c.VLANTag > 4094 {
		return fmt.Errorf("vlan tag must be between 0 and 4094 (got %d)", c.VLANTag)
	}
	if c.MemoryMB < 16 {
		return fmt.Errorf("memory must be at least 16 MiB (got %d)", c.MemoryMB)
	}
	if c.SwapMB < 0 {
		return fmt.Errorf("swap cannot be negative (got %d)", c.SwapMB)
	}
	if c.DiskGB < 1 {
		return fmt.Errorf("disk must be at least 1 GiB (got %d)", c.DiskGB)
	}
	if c.Cores < 1 {
		return fmt.Errorf("cores must be at least 1 (got %d)", c.Cores)
	}
	if c.SSHPort < 1 || c.SSHPort > 65535 {
		return fmt.Errorf("ssh port must be between 1 and 65535 (got %d)", c.SSHPort)
	}
	if c.Storage == "" {
		return fmt.Errorf("storage pool is required")
	}
	if c.Bridge == "" {
		return fmt.Errorf("network bridge is required")
	}
	return nil
}
