package tee

import (
	"strconv"
	"time"

	"github.com/marmos91/ztee/internal/bytesize"
)

// Stats summarizes one transfer.
type Stats struct {
	RunID          string        `json:"run_id" yaml:"run_id"`
	Bytes          int64         `json:"bytes" yaml:"bytes"`
	Chunks         int64         `json:"chunks" yaml:"chunks"`
	Retries        int64         `json:"retries" yaml:"retries"`
	Relays         int           `json:"relays" yaml:"relays"`
	WindowsStarted int64         `json:"windows_started" yaml:"windows_started"`
	WindowsEvicted int64         `json:"windows_evicted" yaml:"windows_evicted"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
	Destinations   []DestStats   `json:"destinations" yaml:"destinations"`
}

// DestStats describes how one destination was wired.
type DestStats struct {
	Index   int    `json:"index" yaml:"index"`
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"`
	Path    string `json:"path" yaml:"path"` // direct, relay, origin
	Managed bool   `json:"cache_managed" yaml:"cache_managed"`
	Bytes   int64  `json:"bytes" yaml:"bytes"`
}

// Throughput returns bytes per second over the whole run.
func (s Stats) Throughput() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Bytes) / s.Duration.Seconds()
}

// Summary implements output.SummaryRenderer.
func (s Stats) Summary() [][2]string {
	return [][2]string{
		{"Run", s.RunID},
		{"Bytes", bytesize.ByteSize(s.Bytes).String()},
		{"Chunks", strconv.FormatInt(s.Chunks, 10)},
		{"Retries", strconv.FormatInt(s.Retries, 10)},
		{"Relays", strconv.Itoa(s.Relays)},
		{"Windows", strconv.FormatInt(s.WindowsStarted, 10) + " started, " + strconv.FormatInt(s.WindowsEvicted, 10) + " evicted"},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
		{"Throughput", bytesize.ByteSize(s.Throughput()).String() + "/s"},
	}
}

// Headers implements output.TableRenderer.
func (s Stats) Headers() []string {
	return []string{"#", "Name", "Kind", "Path", "Cache", "Bytes"}
}

// Rows implements output.TableRenderer.
func (s Stats) Rows() [][]string {
	rows := make([][]string, 0, len(s.Destinations))
	for _, d := range s.Destinations {
		cache := "-"
		if d.Managed {
			cache = "windowed"
		}
		rows = append(rows, []string{
			strconv.Itoa(d.Index),
			d.Name,
			d.Kind,
			d.Path,
			cache,
			bytesize.ByteSize(d.Bytes).String(),
		})
	}
	return rows
}
