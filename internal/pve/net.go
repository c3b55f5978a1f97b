package pve

import "fmt"

// NetConfig renders the pct --net0 string. The VLAN tag parameter is
// appended only when tag is non-zero; an untagged interface carries no
// tag= part at all.
func NetConfig(bridge string, tag int) string {
	s := fmt.Sprintf("name=eth0,bridge=%s,ip=dhcp,firewall=1", bridge)
	if tag > 0 {
		s += fmt.Sprintf(",tag=%d", tag)
	}
	return s
}
