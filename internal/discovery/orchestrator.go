package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robgonnella/plcscout/internal/classifier"
	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/event"
	"github.com/robgonnella/plcscout/internal/exception"
	"github.com/robgonnella/plcscout/internal/logger"
	"github.com/robgonnella/plcscout/internal/probe"
	"github.com/robgonnella/plcscout/internal/target"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ProbeFactory builds the probes used by one scan from its configuration
type ProbeFactory func(conf *config.Config) []probe.Probe

// NewProbeFactory returns a factory for the real protocol probes. Every probe
// dials through dialer, nil meaning the system dialer.
func NewProbeFactory(dialer probe.Dialer) ProbeFactory {
	return func(conf *config.Config) []probe.Probe {
		opts := conf.ProbeOptions()
		opts.Dialer = dialer

		return []probe.Probe{
			probe.NewModbus(opts, conf.ModbusUnitID),
			probe.NewEthernetIP(opts),
			probe.NewMQTT(opts),
			probe.NewOPCUA(opts),
		}
	}
}

// Option configures an Orchestrator
type Option func(o *Orchestrator)

// WithProbeFactory replaces the probes built for each scan
func WithProbeFactory(factory ProbeFactory) Option {
	return func(o *Orchestrator) {
		o.probes = factory
	}
}

// WithHostFilter runs every scan's host list through filter before probing,
// regardless of the configured prefilter
func WithHostFilter(filter HostFilter) Option {
	return func(o *Orchestrator) {
		o.filter = filter
	}
}

// WithEventManager publishes discovery events to manager
func WithEventManager(manager event.Manager) Option {
	return func(o *Orchestrator) {
		o.events = manager
	}
}

// WithClock replaces the clock used for last seen timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator runs every enabled probe over every target host under a
// concurrency ceiling and a per protocol rate limit, merging what they find
// into a device map keyed by ip and port
type Orchestrator struct {
	classifier classifier.Service
	state      *ScanState
	probes     ProbeFactory
	filter     HostFilter
	events     event.Manager
	now        func() time.Time
	devices    map[string]*DiscoveredDevice
	previous   *ScanReport
	mux        sync.Mutex
	log        logger.Logger
}

// NewOrchestrator returns a new idle Orchestrator
func NewOrchestrator(classifierService classifier.Service, state *ScanState, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifierService,
		state:      state,
		probes:     NewProbeFactory(nil),
		now:        time.Now,
		devices:    map[string]*DiscoveredDevice{},
		previous:   emptyReport(),
		log:        logger.Named("discovery"),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// State returns the shared scan state
func (o *Orchestrator) State() *ScanState {
	return o.state
}

// EmergencyStop engages the emergency stop. Remaining work of every protocol
// sweep is abandoned, in flight handshakes finish.
func (o *Orchestrator) EmergencyStop() {
	o.log.Warn().Msg("emergency stop engaged")
	o.state.EmergencyStop()
}

// ResetEmergencyStop releases the emergency stop so new scans may start
func (o *Orchestrator) ResetEmergencyStop() {
	o.log.Info().Msg("emergency stop released")
	o.state.ResetEmergencyStop()
}

// Previous returns the report of the last finished scan
func (o *Orchestrator) Previous() *ScanReport {
	o.mux.Lock()
	defer o.mux.Unlock()
	return o.previous
}

// Snapshot returns a copy of the current device map grouped by protocol
func (o *Orchestrator) Snapshot() Snapshot {
	o.mux.Lock()
	defer o.mux.Unlock()
	return newSnapshot(o.devices)
}

// Scan runs one discovery pass using conf, which fully replaces the
// configuration of any earlier scan. If a scan is already running, or the
// emergency stop is set, the previous report is returned along with
// exception.ErrScanActive or exception.ErrEmergencyStop and nothing is
// probed.
func (o *Orchestrator) Scan(ctx context.Context, conf *config.Config) (*ScanReport, error) {
	conf = conf.Copy()

	if conf.EmergencyStop {
		o.state.EmergencyStop()
	}

	if o.state.Stopped() {
		o.log.Warn().Msg("emergency stop is set, refusing to scan")
		return o.Previous(), exception.ErrEmergencyStop
	}

	if !o.state.begin() {
		o.log.Warn().Msg("scan already in progress")
		return o.Previous(), exception.ErrScanActive
	}

	for _, warning := range conf.Validate() {
		o.log.Warn().Msg(warning)
	}

	stats := ScanStats{
		ScanID:      uuid.New().String(),
		State:       PhaseScanning,
		StartedAt:   time.Now(),
		Protocols:   conf.EnabledProtocols(),
		RangeErrors: []string{},
		Coverage:    map[probe.Protocol]int{},
	}

	scanCtx, cancel := o.scanContext(ctx, conf)
	defer cancel()

	hosts := o.targets(scanCtx, conf, &stats)

	o.mux.Lock()
	o.devices = map[string]*DiscoveredDevice{}
	o.mux.Unlock()

	o.send(event.Event{Type: event.ScanStarted, Payload: stats})

	o.log.Info().
		Str("scan", stats.ScanID).
		Int("hosts", len(hosts)).
		Interface("protocols", stats.Protocols).
		Msg("starting scan")

	counts := &counters{}
	o.sweepAll(scanCtx, conf, hosts, counts)

	phase := PhaseCompleted

	if o.state.Stopped() || scanCtx.Err() != nil {
		phase = PhaseAborted
	}

	report := o.finish(stats, phase, counts)

	o.state.end(phase)

	if phase == PhaseAborted {
		o.send(event.Event{Type: event.ScanAborted, Payload: report.Stats})
	} else {
		o.send(event.Event{Type: event.ScanCompleted, Payload: report.Stats})
	}

	o.log.Info().
		Str("scan", stats.ScanID).
		Str("state", string(phase)).
		Int("devices", report.Stats.DevicesFound).
		Int64("attempts", report.Stats.ProbeAttempts).
		Int64("errors", report.Stats.ProbeErrors).
		Dur("duration", report.Stats.Duration).
		Msg("scan finished")

	return report, nil
}

func (o *Orchestrator) scanContext(ctx context.Context, conf *config.Config) (context.Context, context.CancelFunc) {
	if conf.ScanTimeout > 0 {
		return context.WithTimeout(ctx, conf.ScanTimeout)
	}

	return context.WithCancel(ctx)
}

// targets enumerates and optionally prefilters the configured ranges. Bad
// ranges are counted and skipped.
func (o *Orchestrator) targets(ctx context.Context, conf *config.Config, stats *ScanStats) []string {
	result := target.NewEnumerator(conf.MaxHostsPerRange).Enumerate(conf.NetworkRanges)

	for _, rangeErr := range result.Errors {
		stats.RangeErrors = append(stats.RangeErrors, rangeErr.Error())
		o.reportError(rangeErr)
	}

	stats.HostsEnumerated = len(result.Hosts)

	hosts := result.Hosts

	filter := o.filter

	if filter == nil && conf.Prefilter == config.PrefilterNmap {
		filter = NewNmapFilter()
	}

	if filter != nil && len(hosts) > 0 {
		filtered, err := filter.Filter(ctx, hosts)

		if err != nil {
			o.log.Warn().Err(err).Msg("host prefilter failed, probing every host")
			o.reportError(err)
		} else {
			hosts = filtered
		}
	}

	stats.HostsProbed = len(hosts)

	return hosts
}

// sweepAll runs one sweep per enabled protocol concurrently, all sharing a
// single in flight ceiling
func (o *Orchestrator) sweepAll(ctx context.Context, conf *config.Config, hosts []string, counts *counters) {
	available := map[probe.Protocol]probe.Probe{}

	for _, p := range o.probes(conf) {
		available[p.Protocol()] = p
	}

	sem := semaphore.NewWeighted(int64(conf.MaxConcurrent))

	group, groupCtx := errgroup.WithContext(ctx)

	for _, protocol := range conf.EnabledProtocols() {
		p, ok := available[protocol]

		if !ok {
			o.log.Warn().Str("protocol", string(protocol)).Msg("no probe available for protocol")
			continue
		}

		ports := conf.Ports.For(protocol)

		group.Go(func() error {
			o.sweep(groupCtx, p, ports, hosts, sem, conf.RateLimitDelay, counts)
			return nil
		})
	}

	group.Wait()
}

// sweep probes every host for one protocol. The emergency stop is checked
// before each host and abandons the rest of the sweep.
func (o *Orchestrator) sweep(
	ctx context.Context,
	p probe.Probe,
	ports []int,
	hosts []string,
	sem *semaphore.Weighted,
	delay time.Duration,
	counts *counters,
) {
	protocol := string(p.Protocol())

	var limiter *rate.Limiter

	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	wg := sync.WaitGroup{}

	defer wg.Wait()

	for _, ip := range hosts {
		if o.state.Stopped() {
			o.log.Warn().Str("protocol", protocol).Msg("emergency stop set, abandoning sweep")
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}

		// the flag may have been set while waiting for a slot
		if o.state.Stopped() {
			sem.Release(1)
			o.log.Warn().Str("protocol", protocol).Msg("emergency stop set, abandoning sweep")
			return
		}

		wg.Add(1)

		go func(ip string) {
			defer wg.Done()
			defer sem.Release(1)
			o.probeHost(ctx, p, ip, ports, counts)
		}(ip)
	}
}

func (o *Orchestrator) probeHost(ctx context.Context, p probe.Probe, ip string, ports []int, counts *counters) {
	counts.attempts.Add(1)

	id, err := p.Probe(ctx, probe.TargetHost{IP: ip, Ports: ports})

	if err != nil {
		if !errors.Is(err, probe.ErrNotDetected) {
			counts.errors.Add(1)
		}

		o.log.Debug().
			Str("ip", ip).
			Str("protocol", string(p.Protocol())).
			Err(err).
			Msg("probe failed")

		return
	}

	if id == nil {
		return
	}

	o.record(id)
}

// record classifies an identification and merges it into the device map.
// A later result for the same key replaces the earlier one, its timestamp
// always moving forward.
func (o *Orchestrator) record(id probe.Identification) {
	endpoint := id.Endpoint()

	c := o.classifier.Classify(endpoint, id.Features())

	if c == nil {
		c = &classifier.Classification{
			DeviceType:   classifier.UnknownDevice,
			Manufacturer: classifier.UnknownManufacturer,
		}
	}

	device := newDevice(id, c)

	o.mux.Lock()
	defer o.mux.Unlock()

	now := o.now()

	prev, exists := o.devices[device.Key()]

	if exists && !now.After(prev.LastSeen) {
		now = prev.LastSeen.Add(time.Nanosecond)
	}

	device.LastSeen = now

	o.devices[device.Key()] = device

	o.log.Info().
		Str("ip", device.IP).
		Int("port", device.Port).
		Str("protocol", string(device.Protocol)).
		Str("type", device.DeviceType).
		Str("manufacturer", device.Manufacturer).
		Float64("confidence", device.ConfidenceScore).
		Msg("device discovered")

	evtType := event.DeviceDiscovered

	if exists {
		evtType = event.DeviceUpdated
	}

	// sent under lock so events for a key arrive in map order
	o.send(event.Event{Type: evtType, Payload: device.Copy()})
}

func (o *Orchestrator) finish(stats ScanStats, phase Phase, counts *counters) *ScanReport {
	o.mux.Lock()
	defer o.mux.Unlock()

	snapshot := newSnapshot(o.devices)

	stats.State = phase
	stats.FinishedAt = time.Now()
	stats.Duration = stats.FinishedAt.Sub(stats.StartedAt)
	stats.ProbeAttempts = counts.attempts.Load()
	stats.ProbeErrors = counts.errors.Load()
	stats.DevicesFound = snapshot.Count()

	for _, p := range stats.Protocols {
		stats.Coverage[p] = len(snapshot[p])
	}

	report := &ScanReport{
		Stats:   stats,
		Devices: snapshot,
	}

	o.previous = report

	return report
}

func (o *Orchestrator) send(evt event.Event) {
	if o.events != nil {
		o.events.Send(evt)
	}
}

func (o *Orchestrator) reportError(err error) {
	if o.events != nil {
		o.events.ReportError(err)
	}
}
