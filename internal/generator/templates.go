package generator

import "text/template"

// ComposeData holds data for the mesh client compose definition.
type ComposeData struct {
	Hostname string // advertised mesh hostname
	SetupKey string // pre-authentication key for the mesh control plane
}

// SSHDData holds data for the sshd drop-in config.
type SSHDData struct {
	Port int
}

var composeTmpl = template.Must(template.New("compose").Parse(`services:
  mesh:
    image: tailscale/tailscale:latest
    container_name: mesh
    hostname: {{.Hostname}}
    network_mode: host
    cap_add:
      - NET_ADMIN
      - NET_RAW
    devices:
      - /dev/net/tun:/dev/net/tun
    environment:
      - TS_AUTHKEY={{.SetupKey}}
      - TS_STATE_DIR=/var/lib/mesh
      - TS_USERSPACE=false
    volumes:
      - mesh-state:/var/lib/mesh
    restart: unless-stopped

volumes:
  mesh-state:
`))

var sshdTmpl = template.Must(template.New("sshd").Parse(`# Managed by pvemesh-ctl; edits are overwritten on re-provision.
Port {{.Port}}
PermitRootLogin prohibit-password
PasswordAuthentication no
KbdInteractiveAuthentication no
`))

// TunConf is the host-side config stanza that passes /dev/net/tun through
// to the container. The mesh client needs the tun device even in an
// unprivileged container.
const TunConf = `lxc.cgroup2.devices.allow: c 10:200 rwm
lxc.mount.entry: /dev/net/tun dev/net/tun none bind,create=file`
