package core_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/core"
	"github.com/robgonnella/plcscout/internal/discovery"
	"github.com/robgonnella/plcscout/internal/event"
	mock_discovery "github.com/robgonnella/plcscout/internal/mock/discovery"
	mock_event "github.com/robgonnella/plcscout/internal/mock/event"
	"github.com/robgonnella/plcscout/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCore(t *testing.T) {
	ctrl := gomock.NewController(t)

	defer ctrl.Finish()

	mockDiscovery := mock_discovery.NewMockService(ctrl)
	mockEvents := mock_event.NewMockManager(ctrl)

	conf := config.Default()
	conf.NetworkRanges = []string{"172.100.1.0/24"}

	coreService := core.New(conf, mockDiscovery, mockEvents)

	t.Run("returns config", func(st *testing.T) {
		assert.Equal(st, conf, coreService.Conf())
	})

	t.Run("updates config", func(st *testing.T) {
		defer coreService.UpdateConfig(conf)

		newConf := config.Default()
		newConf.NetworkRanges = []string{"192.111.1.0/28"}
		newConf.Protocols = []string{"mqtt"}

		coreService.UpdateConfig(newConf)

		assert.Equal(st, newConf, coreService.Conf())
	})

	t.Run("scans with current config", func(st *testing.T) {
		report := &discovery.ScanReport{Devices: discovery.Snapshot{}}

		mockDiscovery.EXPECT().Scan(gomock.Any(), conf).Return(report, nil)

		result, err := coreService.Scan(context.Background())

		assert.NoError(st, err)
		assert.Equal(st, report, result)
	})

	t.Run("scans with call time overrides", func(st *testing.T) {
		report := &discovery.ScanReport{Devices: discovery.Snapshot{}}

		mockDiscovery.EXPECT().Scan(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, c *config.Config) (*discovery.ScanReport, error) {
				assert.Equal(st, []string{"10.0.0.0/30"}, c.NetworkRanges)
				assert.Equal(st, []string{"modbus"}, c.Protocols)
				assert.Equal(st, conf.Ports, c.Ports)
				assert.Equal(st, conf.MaxConcurrent, c.MaxConcurrent)
				return report, nil
			},
		)

		result, err := coreService.ScanWith(context.Background(), &config.Config{
			NetworkRanges: []string{"10.0.0.0/30"},
			Protocols:     []string{"modbus"},
		})

		assert.NoError(st, err)
		assert.Equal(st, report, result)
		assert.Equal(st, conf, coreService.Conf())
	})

	t.Run("delegates emergency stop", func(st *testing.T) {
		state := discovery.NewScanState()

		mockDiscovery.EXPECT().EmergencyStop().Do(func() { state.EmergencyStop() })
		mockDiscovery.EXPECT().State().Return(state).Times(2)
		mockDiscovery.EXPECT().ResetEmergencyStop().Do(func() { state.ResetEmergencyStop() })

		coreService.EmergencyStop()

		assert.True(st, coreService.Stopped())

		coreService.ResetEmergencyStop()

		assert.False(st, coreService.Stopped())
	})

	t.Run("registers and removes event listener", func(st *testing.T) {
		evtChan := make(chan event.Event)

		mockEvents.EXPECT().RegisterListener(event.DeviceDiscovered, evtChan).Return(1)
		mockEvents.EXPECT().RemoveListener(1).Return(1)

		id := coreService.RegisterEventListener(event.DeviceDiscovered, evtChan)

		assert.Equal(st, 1, id)

		coreService.RemoveEventListener(id)
	})

	t.Run("stops", func(st *testing.T) {
		mockDiscovery.EXPECT().EmergencyStop()
		mockEvents.EXPECT().Close()

		coreService.Stop()
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads file and fills defaults", func(st *testing.T) {
		path := filepath.Join(st.TempDir(), "config.yml")

		err := os.WriteFile(path, []byte("network_ranges:\n  - 10.1.0.0/24\nmax_concurrent: 3\n"), 0644)

		require.NoError(st, err)

		conf, err := core.LoadConfig(path)

		assert.NoError(st, err)
		assert.Equal(st, []string{"10.1.0.0/24"}, conf.NetworkRanges)
		assert.Equal(st, 3, conf.MaxConcurrent)
		assert.Equal(st, config.Default().Ports, conf.Ports)
	})

	t.Run("returns parse errors", func(st *testing.T) {
		path := filepath.Join(st.TempDir(), "config.yml")

		err := os.WriteFile(path, []byte("network_ranges: [\n"), 0644)

		require.NoError(st, err)

		_, err = core.LoadConfig(path)

		assert.Error(st, err)
	})
}

func TestCreateNewAppCore(t *testing.T) {
	t.Run("scans through a sqlite classification cache", func(st *testing.T) {
		conf := config.Default()
		conf.NetworkRanges = []string{"10.0.0.1"}
		conf.Protocols = []string{"mqtt"}
		conf.RateLimitDelay = 0
		conf.CacheDatabase = filepath.Join(st.TempDir(), "cache.db")

		factory := func(c *config.Config) []probe.Probe {
			return []probe.Probe{&brokerProbe{}}
		}

		appCore, err := core.CreateNewAppCore(conf, discovery.WithProbeFactory(factory))

		require.NoError(st, err)

		defer appCore.Stop()

		events := make(chan event.Event, 10)
		appCore.RegisterEventListener(event.DeviceDiscovered, events)

		report, err := appCore.Scan(context.Background())

		assert.NoError(st, err)
		assert.Equal(st, 1, report.Devices.Count())

		select {
		case evt := <-events:
			device, ok := evt.Payload.(*discovery.DiscoveredDevice)
			assert.True(st, ok)
			assert.Equal(st, "10.0.0.1", device.IP)
		case <-time.After(time.Second):
			st.Fatal("timed out waiting for device event")
		}
	})
}

type brokerProbe struct{}

func (p *brokerProbe) Protocol() probe.Protocol {
	return probe.ProtocolMQTT
}

func (p *brokerProbe) Probe(ctx context.Context, target probe.TargetHost) (probe.Identification, error) {
	return &brokerResult{ip: target.IP}, nil
}

type brokerResult struct {
	ip string
}

func (r *brokerResult) Protocol() probe.Protocol {
	return probe.ProtocolMQTT
}

func (r *brokerResult) Endpoint() probe.Endpoint {
	return probe.Endpoint{IP: r.ip, Port: 1883}
}

func (r *brokerResult) Features() probe.Features {
	return probe.Features{Protocol: probe.ProtocolMQTT, Port: 1883}
}
