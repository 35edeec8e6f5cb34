// Package diagnostics gathers host and workspace health information for
// the doctor and dashboard commands. Everything here is best-effort: a
// probe that fails leaves its fields zero instead of failing the caller.
package diagnostics

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

// HostSnapshot holds one reading of host resources.
type HostSnapshot struct {
	CPUModel   string  `json:"cpu_model"`
	CPUCores   int     `json:"cpu_cores"`
	CPUThreads int     `json:"cpu_threads"`
	CPUPercent float64 `json:"cpu_percent"`

	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	DiskTotalGB float64 `json:"disk_total_gb"`
	DiskUsedGB  float64 `json:"disk_used_gb"`
	DiskPercent float64 `json:"disk_percent"`

	LoadAvg1  float64 `json:"load_avg_1"`
	LoadAvg5  float64 `json:"load_avg_5"`
	LoadAvg15 float64 `json:"load_avg_15"`

	// WorkspaceMB is the total size of the bridge's own documents.
	WorkspaceMB float64 `json:"workspace_mb"`
}

// Collect reads current host resources, with disk usage measured on the
// workspace volume and WorkspaceMB summing the bridge's own directories.
func Collect(paths workspace.Paths) HostSnapshot {
	var s HostSnapshot
	collectCPU(&s)
	collectMemory(&s)
	collectDisk(&s, paths.Root)
	collectLoad(&s)
	s.WorkspaceMB = workspaceUsageMB(paths)
	return s
}

func collectCPU(s *HostSnapshot) {
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		s.CPUModel = strings.TrimSpace(infos[0].ModelName)
	}
	if cores, err := cpu.Counts(false); err == nil && cores > 0 {
		s.CPUCores = cores
	}
	if threads, err := cpu.Counts(true); err == nil && threads > 0 {
		s.CPUThreads = threads
	}

	// Some platforms report nothing through gopsutil; fall back to the
	// hardware inventory.
	if s.CPUModel == "" || s.CPUCores == 0 {
		if info, err := ghw.CPU(); err == nil && len(info.Processors) > 0 {
			proc := info.Processors[0]
			if s.CPUModel == "" {
				s.CPUModel = strings.TrimSpace(proc.Model)
			}
			if s.CPUCores == 0 {
				s.CPUCores = int(info.TotalCores)
			}
			if s.CPUThreads == 0 {
				s.CPUThreads = int(info.TotalThreads)
			}
		}
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
}

func collectMemory(s *HostSnapshot) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	s.MemTotalMB = float64(vm.Total) / 1024 / 1024
	s.MemUsedMB = float64(vm.Used) / 1024 / 1024
	s.MemPercent = vm.UsedPercent
}

func collectDisk(s *HostSnapshot, path string) {
	usage, err := disk.Usage(path)
	if err != nil {
		// The workspace may not exist yet; fall back to the current
		// directory's volume.
		usage, err = disk.Usage(".")
		if err != nil {
			return
		}
	}
	s.DiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
	s.DiskUsedGB = float64(usage.Used) / 1024 / 1024 / 1024
	s.DiskPercent = usage.UsedPercent
}

func collectLoad(s *HostSnapshot) {
	avg, err := load.Avg()
	if err != nil {
		return
	}
	s.LoadAvg1 = avg.Load1
	s.LoadAvg5 = avg.Load5
	s.LoadAvg15 = avg.Load15
}

// workspaceUsageMB sums every file under the bridge's working directories.
func workspaceUsageMB(paths workspace.Paths) float64 {
	var total int64
	for _, dir := range []string{
		paths.Requests, paths.Responses, paths.Archive,
		paths.Checkpoints, paths.Backups, paths.Logs,
	} {
		_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if info, iErr := d.Info(); iErr == nil {
				total += info.Size()
			}
			return nil
		})
	}
	return float64(total) / 1024 / 1024
}
