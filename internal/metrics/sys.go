package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"time"
)

// SysHealth is a point-in-time snapshot of the process and its data
// directory, reported by /health and the bot's /metrics command.
type SysHealth struct {
	GoVersion     string `json:"goVersion"`
	AllocMB       uint64 `json:"allocMB"`
	SysMB         uint64 `json:"sysMB"`
	NumGC         uint32 `json:"numGC"`
	Goroutines    int    `json:"goroutines"`
	DataDiskBytes int64  `json:"dataDiskBytes"`
	DataDiskSize  string `json:"dataDiskSize"`
	Uptime        string `json:"uptime"`
}

// GetSysHealth reads runtime memory figures and sums the files below
// dataPath. A missing data directory counts as empty.
func GetSysHealth(dataPath string, started time.Time) SysHealth {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	used := diskUsage(dataPath)
	return SysHealth{
		GoVersion:     runtime.Version(),
		AllocMB:       mem.Alloc >> 20,
		SysMB:         mem.Sys >> 20,
		NumGC:         mem.NumGC,
		Goroutines:    runtime.NumGoroutine(),
		DataDiskBytes: used,
		DataDiskSize:  formatBytes(used),
		Uptime:        time.Since(started).Truncate(time.Second).String(),
	}
}

func diskUsage(root string) int64 {
	if root == "" {
		return 0
	}
	var total int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// formatBytes renders n with a binary unit, e.g. "1.5 MiB".
func formatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	units := []string{"KiB", "MiB", "GiB", "TiB"}
	v := float64(n) / 1024
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}
