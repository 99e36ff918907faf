package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// HostLoad reads real utilisation from the operating system.
// Network is throughput since the previous call as a share of capacity.
type HostLoad struct {
	diskPath        string
	networkCapacity float64 // bytes per second

	mu       sync.Mutex
	lastNet  uint64
	lastRead time.Time
	nowFn    func() time.Time
}

// NewHostLoad creates a host source. diskPath is the mount whose usage is
// reported; networkCapacityBps is the link speed used to scale throughput.
func NewHostLoad(diskPath string, networkCapacityBps float64) *HostLoad {
	if diskPath == "" {
		diskPath = "/"
	}
	return &HostLoad{
		diskPath:        diskPath,
		networkCapacity: networkCapacityBps,
		nowFn:           time.Now,
	}
}

func (h *HostLoad) Load(ctx context.Context) (SystemLoad, error) {
	var load SystemLoad

	cpus, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return load, fmt.Errorf("cpu percent: %w", err)
	}
	if len(cpus) > 0 {
		load.CPU = clampPercent(cpus[0])
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return load, fmt.Errorf("virtual memory: %w", err)
	}
	load.Memory = clampPercent(vm.UsedPercent)

	usage, err := disk.UsageWithContext(ctx, h.diskPath)
	if err != nil {
		return load, fmt.Errorf("disk usage %s: %w", h.diskPath, err)
	}
	load.Disk = clampPercent(usage.UsedPercent)

	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return load, fmt.Errorf("net counters: %w", err)
	}
	if len(counters) > 0 {
		load.Network = h.networkPercent(counters[0].BytesSent + counters[0].BytesRecv)
	}
	return load, nil
}

// networkPercent is 0 on the first call, which only records a baseline.
func (h *HostLoad) networkPercent(total uint64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.nowFn()
	defer func() {
		h.lastNet = total
		h.lastRead = now
	}()

	if h.lastRead.IsZero() || h.networkCapacity <= 0 || total < h.lastNet {
		return 0
	}
	elapsed := now.Sub(h.lastRead).Seconds()
	if elapsed <= 0 {
		return 0
	}
	bps := float64(total-h.lastNet) / elapsed
	return clampPercent(bps / h.networkCapacity * 100)
}
