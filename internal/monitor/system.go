package monitor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// DefaultBusyLoad is the per-core 1-minute load average above which the
// system counts as busy.
const DefaultBusyLoad = 0.5

// SystemProbe reads live resource state. System quietness is derived
// from the load average: whenever per-core load exceeds the busy
// threshold the idle clock resets, so IdleTime reports how long the
// machine has stayed below it.
type SystemProbe struct {
	busyLoad float64

	// hooks replaced in tests
	loadAvg  func(ctx context.Context) (float64, error)
	cpuCount func(ctx context.Context) (int, error)
	memUsed  func(ctx context.Context) (float64, error)

	mu       sync.Mutex
	lastBusy time.Time
}

// NewSystemProbe creates a probe backed by gopsutil.
func NewSystemProbe() *SystemProbe {
	return &SystemProbe{
		busyLoad: DefaultBusyLoad,
		loadAvg: func(ctx context.Context) (float64, error) {
			avg, err := load.AvgWithContext(ctx)
			if err != nil {
				return 0, err
			}
			return avg.Load1, nil
		},
		cpuCount: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, true)
		},
		memUsed: func(ctx context.Context) (float64, error) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return 0, err
			}
			return vm.UsedPercent, nil
		},
		lastBusy: time.Now(),
	}
}

func (p *SystemProbe) IdleTime(ctx context.Context) (time.Duration, error) {
	avg, err := p.loadAvg(ctx)
	if err != nil {
		return 0, err
	}
	cores, err := p.cpuCount(ctx)
	if err != nil || cores < 1 {
		cores = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if avg/float64(cores) > p.busyLoad {
		p.lastBusy = time.Now()
	}
	return time.Since(p.lastBusy), nil
}

func (p *SystemProbe) MemoryUsedPercent(ctx context.Context) (float64, error) {
	return p.memUsed(ctx)
}

// PowerState reads the battery state from sysfs on Linux. On other
// platforms, and on machines without a battery, it reports AC power.
func (p *SystemProbe) PowerState(ctx context.Context) (PowerState, error) {
	if runtime.GOOS != "linux" {
		return PowerState{}, nil
	}
	return readSysfsPower("/sys/class/power_supply")
}

// readSysfsPower scans power supply entries for a discharging battery.
func readSysfsPower(root string) (PowerState, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		// no sysfs, assume AC
		return PowerState{}, nil
	}

	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		kind, err := os.ReadFile(filepath.Join(dir, "type"))
		if err != nil || strings.TrimSpace(string(kind)) != "Battery" {
			continue
		}

		status, err := os.ReadFile(filepath.Join(dir, "status"))
		if err != nil {
			continue
		}
		state := PowerState{
			OnBattery: strings.TrimSpace(string(status)) == "Discharging",
		}
		if capRaw, err := os.ReadFile(filepath.Join(dir, "capacity")); err == nil {
			if pct, err := strconv.ParseFloat(strings.TrimSpace(string(capRaw)), 64); err == nil {
				state.BatteryPercent = pct
			}
		}
		return state, nil
	}
	return PowerState{}, nil
}
