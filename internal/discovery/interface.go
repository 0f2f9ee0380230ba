package discovery

import (
	"context"

	"github.com/robgonnella/plcscout/internal/config"
)

//go:generate mockgen -destination=../mock/discovery/mock_discovery.go -package=mock_discovery . HostFilter,Service

// HostFilter narrows enumerated hosts down to the ones worth probing
type HostFilter interface {
	Filter(ctx context.Context, hosts []string) ([]string, error)
}

// Service interface for running discovery scans
type Service interface {
	Scan(ctx context.Context, conf *config.Config) (*ScanReport, error)
	Snapshot() Snapshot
	Previous() *ScanReport
	EmergencyStop()
	ResetEmergencyStop()
	State() *ScanState
}
