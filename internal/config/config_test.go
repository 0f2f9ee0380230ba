package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("defaults every field", func(st *testing.T) {
		conf := config.Default()

		assert.Equal(st, []int{502}, conf.Ports.Modbus)
		assert.Equal(st, []int{44818, 2222}, conf.Ports.EthernetIP)
		assert.Equal(st, []int{1883, 8883}, conf.Ports.MQTT)
		assert.Equal(st, []int{4840}, conf.Ports.OPCUA)
		assert.Equal(st, 10, conf.MaxConcurrent)
		assert.Equal(st, 254, conf.MaxHostsPerRange)
		assert.Equal(st, uint8(1), conf.ModbusUnitID)
		assert.Equal(st, config.PrefilterNone, conf.Prefilter)
		assert.False(st, conf.EmergencyStop)
		assert.Equal(st, probe.Protocols, conf.EnabledProtocols())
	})

	t.Run("loads a partial document", func(st *testing.T) {
		confPath := filepath.Join(st.TempDir(), "scan.yaml")

		doc := `
network_ranges:
  - 192.168.10.0/24
protocols:
  - modbus
rate_limit_delay: 250ms
ports:
  modbus: [502, 5020]
`

		require.NoError(st, os.WriteFile(confPath, []byte(doc), 0644))

		conf, err := config.New(confPath)

		assert.NoError(st, err)
		assert.Equal(st, []string{"192.168.10.0/24"}, conf.NetworkRanges)
		assert.Equal(st, []probe.Protocol{probe.ProtocolModbus}, conf.EnabledProtocols())
		assert.Equal(st, 250*time.Millisecond, conf.RateLimitDelay)
		assert.Equal(st, []int{502, 5020}, conf.Ports.Modbus)
		assert.Equal(st, []int{44818, 2222}, conf.Ports.EthernetIP)
		assert.Equal(st, 2*time.Second, conf.ConnectTimeout)
		assert.Equal(st, 10, conf.MaxConcurrent)
	})

	t.Run("returns error for missing file", func(st *testing.T) {
		_, err := config.New(filepath.Join(st.TempDir(), "missing.yaml"))

		assert.Error(st, err)
	})

	t.Run("returns error for invalid yaml", func(st *testing.T) {
		confPath := filepath.Join(st.TempDir(), "bad.yaml")

		require.NoError(st, os.WriteFile(confPath, []byte("ports: ["), 0644))

		_, err := config.New(confPath)

		assert.Error(st, err)
	})

	t.Run("merges call time overrides without touching inputs", func(st *testing.T) {
		base := config.Default()
		base.NetworkRanges = []string{"10.0.0.0/24"}

		override := &config.Config{
			MaxConcurrent: 3,
			Protocols:     []string{"mqtt"},
		}

		merged, err := config.Merge(base, override)

		assert.NoError(st, err)
		assert.Equal(st, 3, merged.MaxConcurrent)
		assert.Equal(st, []string{"mqtt"}, merged.Protocols)
		assert.Equal(st, []string{"10.0.0.0/24"}, merged.NetworkRanges)

		assert.Equal(st, 10, base.MaxConcurrent)
		assert.Len(st, base.Protocols, 4)
		assert.Empty(st, override.NetworkRanges)

		merged.NetworkRanges[0] = "changed"

		assert.Equal(st, "10.0.0.0/24", base.NetworkRanges[0])
	})

	t.Run("writes yaml that loads back", func(st *testing.T) {
		confPath := filepath.Join(st.TempDir(), "out.yaml")

		conf := config.Default()
		conf.NetworkRanges = []string{"172.16.0.0/28"}
		conf.RateLimitDelay = time.Second

		require.NoError(st, config.Write(conf, confPath))

		loaded, err := config.New(confPath)

		assert.NoError(st, err)
		assert.Equal(st, conf, loaded)
	})
}

func TestValidate(t *testing.T) {
	t.Run("drops unsupported protocols with a warning", func(st *testing.T) {
		conf := config.Default()
		conf.Protocols = []string{"modbus", "profinet", "ENIP", "modbus_tcp"}

		warnings := conf.Validate()

		assert.Len(st, warnings, 1)
		assert.Contains(st, warnings[0], "profinet")
		assert.Equal(st, []string{"modbus", "ethernet_ip"}, conf.Protocols)
	})

	t.Run("replaces invalid limits", func(st *testing.T) {
		conf := config.Default()
		conf.MaxConcurrent = 0
		conf.MaxHostsPerRange = -1
		conf.RateLimitDelay = -time.Second
		conf.Prefilter = "masscan"

		warnings := conf.Validate()

		assert.Len(st, warnings, 4)
		assert.Equal(st, 10, conf.MaxConcurrent)
		assert.Equal(st, 254, conf.MaxHostsPerRange)
		assert.Equal(st, time.Duration(0), conf.RateLimitDelay)
		assert.Equal(st, config.PrefilterNone, conf.Prefilter)
	})

	t.Run("restores ports for enabled protocols", func(st *testing.T) {
		conf := config.Default()
		conf.Ports.MQTT = nil

		warnings := conf.Validate()

		assert.Len(st, warnings, 1)
		assert.Equal(st, []int{1883, 8883}, conf.Ports.For(probe.ProtocolMQTT))
	})

	t.Run("passes a default configuration", func(st *testing.T) {
		conf := config.Default()

		assert.Empty(st, conf.Validate())
	})
}
