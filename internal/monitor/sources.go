package monitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/user"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gopsnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// HostCPU reads CPU counters of the local machine.
type HostCPU struct{}

func (HostCPU) Counts(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

func (HostCPU) Times(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error) {
	return cpu.TimesWithContext(ctx, perCPU)
}

// HostMemory reads memory counters of the local machine.
type HostMemory struct{}

func (HostMemory) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (HostMemory) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

// ReadHostInfo returns static information about the local machine.
func ReadHostInfo(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, fmt.Errorf("read host info: %w", err)
	}
	return HostInfo{
		Hostname: info.Hostname,
		OS:       info.OS,
		Platform: info.Platform + " " + info.PlatformVersion,
		Kernel:   info.KernelVersion,
		Uptime:   time.Duration(info.Uptime) * time.Second,
	}, nil
}

// uidCache resolves numeric uids to account names, including system and
// service accounts. Unknown uids resolve to the number itself.
type uidCache struct {
	mu     sync.Mutex
	names  map[int32]string
	lookup func(uid int32) (string, error)
}

func newUIDCache() *uidCache {
	return &uidCache{
		names: make(map[int32]string),
		lookup: func(uid int32) (string, error) {
			u, err := user.LookupId(strconv.Itoa(int(uid)))
			if err != nil {
				return "", err
			}
			return u.Username, nil
		},
	}
}

func (c *uidCache) name(uid int32) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.names[uid]; ok {
		return n
	}
	n, err := c.lookup(uid)
	if err != nil || n == "" {
		n = strconv.Itoa(int(uid))
	}
	c.names[uid] = n
	return n
}

// HostProcesses enumerates local processes with gopsutil.
type HostProcesses struct {
	users *uidCache
}

// NewHostProcesses creates a process source with an empty uid cache.
func NewHostProcesses() *HostProcesses {
	return &HostProcesses{users: newUIDCache()}
}

func (h *HostProcesses) Processes(ctx context.Context) ([]RawProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("enumerate processes: %v: %w", err, ErrSourceUnavailable)
		}
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}
	if len(procs) == 0 {
		return nil, fmt.Errorf("no processes visible: %w", ErrSourceUnavailable)
	}

	out := make([]RawProcess, 0, len(procs))
	for _, p := range procs {
		// A process can exit between listing and inspection.
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		raw := RawProcess{PID: p.Pid, Name: name}

		if times, err := p.TimesWithContext(ctx); err == nil {
			raw.CPUTime = time.Duration((times.User + times.System) * float64(time.Second))
		}
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			raw.MemoryBytes = mi.RSS
		}
		if ct, err := p.CreateTimeWithContext(ctx); err == nil {
			raw.CreateTime = ct
		}
		if uids, err := p.UidsWithContext(ctx); err == nil && len(uids) > 0 {
			raw.User = h.users.name(uids[0])
		}

		cmd, _ := p.CmdlineWithContext(ctx)
		if cmd == "" {
			cmd = name
		}
		raw.Command = cmd

		out = append(out, raw)
	}
	return out, nil
}

// PortSource maps pids to the local ports they have bound.
type PortSource interface {
	ListeningPorts(ctx context.Context) (map[int32][]uint16, error)
}

// HostPorts reads socket tables with gopsutil. TCP sockets count when
// listening, UDP sockets when bound to a port.
type HostPorts struct{}

func (HostPorts) ListeningPorts(ctx context.Context) (map[int32][]uint16, error) {
	conns, err := gopsnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return groupPorts(conns), nil
}

// UDP type per gopsutil (syscall.SOCK_DGRAM).
const sockDgram = 2

func groupPorts(conns []gopsnet.ConnectionStat) map[int32][]uint16 {
	seen := make(map[int32]map[uint16]bool)
	for _, c := range conns {
		if c.Pid <= 0 || c.Laddr.Port == 0 {
			continue
		}
		if c.Status != "LISTEN" && c.Type != sockDgram {
			continue
		}
		if seen[c.Pid] == nil {
			seen[c.Pid] = make(map[uint16]bool)
		}
		seen[c.Pid][uint16(c.Laddr.Port)] = true
	}

	out := make(map[int32][]uint16, len(seen))
	for pid, set := range seen {
		ports := make([]uint16, 0, len(set))
		for p := range set {
			ports = append(ports, p)
		}
		sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
		out[pid] = ports
	}
	return out
}
