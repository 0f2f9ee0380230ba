package core

import (
	"context"
	"sync"

	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/discovery"
	"github.com/robgonnella/plcscout/internal/event"
	"github.com/robgonnella/plcscout/internal/logger"
)

// Core represents our core data structure
type Core struct {
	conf      *config.Config
	discovery discovery.Service
	events    event.Manager
	logger    logger.Logger
	mux       sync.RWMutex
}

// New returns new core module for given configuration
func New(
	conf *config.Config,
	discoveryService discovery.Service,
	events event.Manager,
) *Core {
	return &Core{
		conf:      conf.Copy(),
		discovery: discoveryService,
		events:    events,
		logger:    logger.New(),
	}
}

// Conf returns a copy of the current scan configuration
func (c *Core) Conf() *config.Config {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.conf.Copy()
}

// UpdateConfig replaces the scan configuration used by later scans
func (c *Core) UpdateConfig(conf *config.Config) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.conf = conf.Copy()
}

// Scan runs one scan with the current configuration
func (c *Core) Scan(ctx context.Context) (*discovery.ScanReport, error) {
	return c.discovery.Scan(ctx, c.Conf())
}

// ScanWith runs one scan with every field set in override taking precedence
// over the current configuration. The current configuration is not changed.
func (c *Core) ScanWith(ctx context.Context, override *config.Config) (*discovery.ScanReport, error) {
	conf, err := config.Merge(c.Conf(), override)

	if err != nil {
		return nil, err
	}

	return c.discovery.Scan(ctx, conf)
}

// Snapshot returns the devices found so far by the current or last scan
func (c *Core) Snapshot() discovery.Snapshot {
	return c.discovery.Snapshot()
}

// Previous returns the report of the last finished scan
func (c *Core) Previous() *discovery.ScanReport {
	return c.discovery.Previous()
}

// EmergencyStop engages the emergency stop
func (c *Core) EmergencyStop() {
	c.discovery.EmergencyStop()
}

// ResetEmergencyStop releases the emergency stop
func (c *Core) ResetEmergencyStop() {
	c.discovery.ResetEmergencyStop()
}

// Stopped reports whether the emergency stop is engaged
func (c *Core) Stopped() bool {
	return c.discovery.State().Stopped()
}

// RegisterEventListener subscribes channel to discovery events of one type,
// or event.AllEvents
func (c *Core) RegisterEventListener(eventType event.EventType, channel chan event.Event) int {
	return c.events.RegisterListener(eventType, channel)
}

// RemoveEventListener unsubscribes a listener
func (c *Core) RemoveEventListener(id int) {
	c.events.RemoveListener(id)
}

// Stop engages the emergency stop and shuts down event delivery
func (c *Core) Stop() {
	c.logger.Info().Msg("stopping core")
	c.discovery.EmergencyStop()
	c.events.Close()
}
