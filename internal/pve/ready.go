package pve

import (
	"context"
	"fmt"
	"time"

	"github.com/pvemesh/pvemesh-ctl/internal/logging"
)

const (
	// DefaultReadyTimeout bounds the wait for a container to start.
	DefaultReadyTimeout = 60 * time.Second

	// DefaultReadyInterval is the poll interval for readiness checks.
	DefaultReadyInterval = 2 * time.Second
)

// WaitReady polls the container status until it reports running, the
// timeout elapses, or the context is cancelled. A fixed sleep is not a
// readiness signal; this is the bounded replacement.
func (c *Client) WaitReady(ctx context.Context, vmid int, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		status, err := c.Status(ctx, vmid)
		if err == nil && status == "running" {
			return nil
		}
		if err != nil {
			logging.Debug("readiness check failed", "vmid", vmid, "error", err)
		} else {
			logging.Debug("container not ready", "vmid", vmid, "status", status)
		}

		if time.Now().After(deadline) {
			if err != nil {
				return fmt.Errorf("timed out after %s: %w", timeout, err)
			}
			return fmt.Errorf("timed out after %s (last status: %s)", timeout, status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
