package monitor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/telemetry"
)

// Snapshot is one refresh worth of data. Err holds the first connection
// error; sections that failed keep their zero value.
type Snapshot struct {
	System      collector.SystemMetrics
	Services    collector.ServicesSummary
	Containers  collector.ContainersSummary
	Diagnostics collector.Diagnostics
	Health      telemetry.Health
	Err         error
	Time        time.Time
}

// Collect fetches every dashboard section from src concurrently, bounded by
// timeout, and scores diagnostics from the fetched sections.
func Collect(ctx context.Context, src telemetry.Source, timeout time.Duration) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var snap Snapshot
	var g errgroup.Group

	g.Go(func() error {
		var err error
		snap.System, err = src.System(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Services, err = src.Services(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Containers, err = src.Containers(ctx)
		return err
	})
	g.Go(func() error {
		snap.Health = src.Health(ctx)
		return nil
	})

	snap.Err = g.Wait()
	snap.Time = time.Now()
	if snap.Err == nil {
		snap.Diagnostics = collector.Diagnose(snap.System, snap.Services, snap.Containers, snap.Time)
	}
	return snap
}
