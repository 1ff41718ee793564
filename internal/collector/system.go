package collector

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// System collects host resource usage with one batched probe.
func (c *Collector) System(ctx context.Context) (SystemMetrics, error) {
	m := SystemMetrics{
		Disk:      map[string]DiskUsage{},
		Timestamp: c.now().Unix(),
	}

	res := c.run(ctx, "system", SystemScript)
	if err := res.ConnectionError(); err != nil {
		return m, err
	}

	sections := SplitSections(res.Stdout, 5)

	if cpu, err := ParseCPUSamples(sections[0]); err != nil {
		c.warnParse("system", "cpu", err, sections[0])
	} else {
		m.CPUUsage = cpu
	}

	if mem, err := ParseMeminfo(sections[1]); err != nil {
		c.warnParse("system", "memory", err, sections[1])
	} else {
		m.Memory = mem
	}

	if disk, err := ParseDF(sections[2]); err != nil {
		c.warnParse("system", "disk", err, sections[2])
	} else {
		m.Disk["/"] = disk
	}

	if load, err := ParseLoadavg(sections[3]); err != nil {
		c.warnParse("system", "load", err, sections[3])
	} else {
		m.LoadAverage = load
	}

	if net, err := ParseNetDev(sections[4]); err != nil {
		c.warnParse("system", "network", err, sections[4])
	} else {
		m.Network = net
	}

	return m, nil
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type cpuSample struct {
	total, idle int64
}

func parseCPULine(line string) (cpuSample, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 || fields[0] != "cpu" {
		return cpuSample{}, fmt.Errorf("invalid /proc/stat cpu line: %q", line)
	}

	var s cpuSample
	// Fields: cpu user nice system idle iowait irq softirq steal guest guest_nice
	for i := 1; i < len(fields); i++ {
		val, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return cpuSample{}, fmt.Errorf("failed to parse cpu field %d: %w", i, err)
		}
		// guest time is already counted in user/nice
		if i >= 9 {
			continue
		}
		s.total += val
		if i == 4 || i == 5 {
			s.idle += val
		}
	}
	return s, nil
}

// ParseCPUSamples computes busy percent from aggregate "cpu " lines of
// /proc/stat. With two samples it uses the delta between them; with one it
// falls back to the average since boot.
func ParseCPUSamples(out string) (float64, error) {
	var samples []cpuSample
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		s, err := parseCPULine(line)
		if err != nil {
			return 0, err
		}
		samples = append(samples, s)
	}

	switch len(samples) {
	case 0:
		return 0, fmt.Errorf("no cpu line in /proc/stat output")
	case 1:
		s := samples[0]
		if s.total == 0 {
			return 0, nil
		}
		return round1(float64(s.total-s.idle) / float64(s.total) * 100), nil
	}

	first, last := samples[0], samples[len(samples)-1]
	total := last.total - first.total
	idle := last.idle - first.idle
	if total <= 0 {
		return 0, nil
	}
	return round1(float64(total-idle) / float64(total) * 100), nil
}

// ParseMeminfo parses /proc/meminfo into byte counts.
func ParseMeminfo(out string) (Memory, error) {
	scanner := bufio.NewScanner(strings.NewReader(out))

	var memTotal, memFree, memAvailable, buffers, cached int64
	haveAvailable := false
	foundFields := 0

	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		// Values in /proc/meminfo are in kB
		key := strings.TrimSuffix(parts[0], ":")
		val, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		valBytes := val * 1024

		switch key {
		case "MemTotal":
			memTotal = valBytes
			foundFields++
		case "MemFree":
			memFree = valBytes
			foundFields++
		case "MemAvailable":
			memAvailable = valBytes
			haveAvailable = true
			foundFields++
		case "Buffers":
			buffers = valBytes
			foundFields++
		case "Cached":
			cached = valBytes
			foundFields++
		}
	}

	if err := scanner.Err(); err != nil {
		return Memory{}, fmt.Errorf("error scanning /proc/meminfo: %w", err)
	}
	if foundFields < 2 || memTotal == 0 {
		return Memory{}, fmt.Errorf("insufficient memory info found in /proc/meminfo")
	}

	// Kernels before 3.14 lack MemAvailable.
	if !haveAvailable {
		memAvailable = memFree + buffers + cached
	}

	used := memTotal - memFree - buffers - cached
	if used < 0 {
		used = memTotal - memFree
	}

	return Memory{
		Total:     memTotal,
		Available: memAvailable,
		Percent:   round1(float64(memTotal-memAvailable) / float64(memTotal) * 100),
		Used:      used,
		Free:      memFree,
	}, nil
}

// ParseDF parses `df -P -B1 <mount>` output.
func ParseDF(out string) (DiskUsage, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 || fields[0] == "Filesystem" {
			continue
		}

		total, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return DiskUsage{}, fmt.Errorf("failed to parse df size: %w", err)
		}
		used, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return DiskUsage{}, fmt.Errorf("failed to parse df used: %w", err)
		}
		free, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return DiskUsage{}, fmt.Errorf("failed to parse df available: %w", err)
		}

		d := DiskUsage{Total: total, Used: used, Free: free}
		if total > 0 {
			d.Percent = round1(float64(used) / float64(total) * 100)
		}
		return d, nil
	}
	return DiskUsage{}, fmt.Errorf("no filesystem row in df output")
}

// ParseLoadavg parses /proc/loadavg.
func ParseLoadavg(out string) (LoadAverage, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 3 {
		return LoadAverage{}, fmt.Errorf("invalid /proc/loadavg: %q", out)
	}

	var vals [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return LoadAverage{}, fmt.Errorf("failed to parse loadavg field %d: %w", i, err)
		}
		vals[i] = v
	}
	return LoadAverage{Load1: vals[0], Load5: vals[1], Load15: vals[2]}, nil
}

// ParseNetDev sums counters over every interface in /proc/net/dev.
func ParseNetDev(out string) (Network, error) {
	var n Network
	found := 0

	for _, line := range strings.Split(out, "\n") {
		// Format: "  iface: bytes packets errs drop fifo frame compressed multicast | bytes packets..."
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || strings.Contains(parts[0], "|") {
			continue
		}
		name := strings.TrimSpace(parts[0])
		fields := strings.Fields(parts[1])
		if len(fields) < 16 {
			continue
		}

		var vals [4]int64
		for i, idx := range []int{0, 1, 8, 9} {
			v, err := strconv.ParseInt(fields[idx], 10, 64)
			if err != nil {
				return Network{}, fmt.Errorf("failed to parse counter %d for %s: %w", idx, name, err)
			}
			vals[i] = v
		}

		n.BytesRecv += vals[0]
		n.PacketsRecv += vals[1]
		n.BytesSent += vals[2]
		n.PacketsSent += vals[3]
		found++
	}

	if found == 0 {
		return Network{}, fmt.Errorf("no interfaces in /proc/net/dev output")
	}
	return n, nil
}
