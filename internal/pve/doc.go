// Package pve wraps the Proxmox VE host CLIs (pvesh, pveam, pct) behind
// a small typed surface.
//
// The cluster resource inventory is fetched fresh on every call; nothing
// is cached or persisted. VMID allocation is advisory only: two concurrent
// allocations can compute the same value, so callers treat pct create as
// the authoritative claim and retry on collision.
package pve
