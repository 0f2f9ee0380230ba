package discovery

import (
	"sync/atomic"
	"time"

	"github.com/robgonnella/plcscout/internal/probe"
)

// ScanStats summary of a single scan
type ScanStats struct {
	ScanID          string                 `json:"scan_id" yaml:"scan_id"`
	State           Phase                  `json:"state" yaml:"state"`
	StartedAt       time.Time              `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time              `json:"finished_at" yaml:"finished_at"`
	Duration        time.Duration          `json:"duration" yaml:"duration"`
	Protocols       []probe.Protocol       `json:"protocols" yaml:"protocols"`
	HostsEnumerated int                    `json:"hosts_enumerated" yaml:"hosts_enumerated"`
	HostsProbed     int                    `json:"hosts_probed" yaml:"hosts_probed"`
	RangeErrors     []string               `json:"range_errors" yaml:"range_errors"`
	ProbeAttempts   int64                  `json:"probe_attempts" yaml:"probe_attempts"`
	ProbeErrors     int64                  `json:"probe_errors" yaml:"probe_errors"`
	DevicesFound    int                    `json:"devices_found" yaml:"devices_found"`
	Coverage        map[probe.Protocol]int `json:"coverage" yaml:"coverage"`
}

// ScanReport the outcome of a scan: its statistics plus the device map
// grouped by protocol
type ScanReport struct {
	Stats   ScanStats `json:"stats" yaml:"stats"`
	Devices Snapshot  `json:"devices" yaml:"devices"`
}

func emptyReport() *ScanReport {
	return &ScanReport{
		Stats: ScanStats{
			State:       PhaseIdle,
			Protocols:   []probe.Protocol{},
			RangeErrors: []string{},
			Coverage:    map[probe.Protocol]int{},
		},
		Devices: Snapshot{},
	}
}

// counters updated concurrently by probe workers
type counters struct {
	attempts atomic.Int64
	errors   atomic.Int64
}
