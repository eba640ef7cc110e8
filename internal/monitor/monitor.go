package monitor

import (
	"context"
	"time"
)

// PowerState describes the machine's power source.
type PowerState struct {
	OnBattery      bool
	BatteryPercent float64 // 0-100, meaningful only when OnBattery
}

// Probe answers the resource questions the indexing scheduler gates on.
// Implementations must be safe for concurrent use.
type Probe interface {
	// IdleTime reports how long the system has been quiet.
	IdleTime(ctx context.Context) (time.Duration, error)

	// PowerState reports whether the machine runs on battery and at what
	// charge level.
	PowerState(ctx context.Context) (PowerState, error)

	// MemoryUsedPercent reports system memory utilization, 0-100.
	MemoryUsedPercent(ctx context.Context) (float64, error)
}

// StaticProbe returns fixed answers. Used in tests and as a stub when
// resource gating is disabled.
type StaticProbe struct {
	Idle    time.Duration
	Power   PowerState
	Memory  float64
	Err     error
}

func (p *StaticProbe) IdleTime(ctx context.Context) (time.Duration, error) {
	return p.Idle, p.Err
}

func (p *StaticProbe) PowerState(ctx context.Context) (PowerState, error) {
	return p.Power, p.Err
}

func (p *StaticProbe) MemoryUsedPercent(ctx context.Context) (float64, error) {
	return p.Memory, p.Err
}
