package commands

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	app_info "github.com/robgonnella/plcscout/internal/app-info"
	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/discovery"
	"github.com/robgonnella/plcscout/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testReport() *discovery.ScanReport {
	return &discovery.ScanReport{
		Stats: discovery.ScanStats{
			ScanID:        "scan-1",
			State:         discovery.PhaseCompleted,
			HostsProbed:   4,
			ProbeAttempts: 4,
			DevicesFound:  1,
			Duration:      time.Second,
		},
		Devices: discovery.Snapshot{
			probe.ProtocolModbus: {
				{
					IP:              "192.168.1.1",
					Port:            502,
					Protocol:        probe.ProtocolModbus,
					DeviceType:      "plc",
					Manufacturer:    "Schneider Electric",
					ConfidenceScore: 0.75,
					Capabilities:    []string{"holding_registers"},
					SecurityLevel:   "low",
					NetworkZone:     "control",
					Status:          discovery.StatusOnline,
				},
			},
		},
	}
}

func TestRender(t *testing.T) {
	color.NoColor = true

	t.Run("renders json mapping", func(st *testing.T) {
		buf := &bytes.Buffer{}

		err := render(buf, outputJSON, testReport())

		require.NoError(st, err)

		result := map[string][]map[string]interface{}{}

		require.NoError(st, json.Unmarshal(buf.Bytes(), &result))

		assert.Len(st, result["modbus"], 1)
		assert.Equal(st, "192.168.1.1", result["modbus"][0]["ip_address"])
		assert.Equal(st, float64(502), result["modbus"][0]["port"])
	})

	t.Run("renders yaml mapping", func(st *testing.T) {
		buf := &bytes.Buffer{}

		err := render(buf, outputYAML, testReport())

		require.NoError(st, err)

		result := map[string][]map[string]interface{}{}

		require.NoError(st, yaml.Unmarshal(buf.Bytes(), &result))

		assert.Len(st, result["modbus"], 1)
		assert.Equal(st, "Schneider Electric", result["modbus"][0]["manufacturer"])
	})

	t.Run("renders table", func(st *testing.T) {
		buf := &bytes.Buffer{}

		err := render(buf, outputTable, testReport())

		require.NoError(st, err)

		out := buf.String()

		assert.Contains(st, out, "scan scan-1 completed")
		assert.Contains(st, out, "192.168.1.1:502")
		assert.Contains(st, out, "Schneider Electric")
		assert.Contains(st, out, "0.75")
	})

	t.Run("renders empty table", func(st *testing.T) {
		buf := &bytes.Buffer{}

		report := testReport()
		report.Devices = discovery.Snapshot{}

		err := render(buf, outputTable, report)

		require.NoError(st, err)
		assert.Contains(st, buf.String(), "no devices found")
	})
}

func TestRenderAlignment(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()

	ansi := regexp.MustCompile(`\x1b\[[0-9;]*m`)

	report := testReport()
	report.Devices[probe.ProtocolModbus] = append(
		report.Devices[probe.ProtocolModbus],
		&discovery.DiscoveredDevice{
			IP:              "192.168.1.20",
			Port:            502,
			Protocol:        probe.ProtocolModbus,
			DeviceType:      "unknown",
			Manufacturer:    "Unknown",
			ConfidenceScore: 0.1,
			SecurityLevel:   "medium",
			NetworkZone:     "control",
		},
	)

	buf := &bytes.Buffer{}

	require.NoError(t, render(buf, outputTable, report))

	assert.True(t, ansi.MatchString(buf.String()))

	columns := []int{}

	for _, line := range strings.Split(ansi.ReplaceAllString(buf.String(), ""), "\n") {
		switch {
		case strings.HasPrefix(line, "PROTOCOL"):
			columns = append(columns, strings.Index(line, "ZONE"))
		case strings.HasPrefix(line, "modbus"):
			columns = append(columns, strings.Index(line, "control"))
		}
	}

	require.Len(t, columns, 3)
	assert.Equal(t, columns[0], columns[1])
	assert.Equal(t, columns[0], columns[2])
}

func TestScanFlags(t *testing.T) {
	t.Run("overrides only changed flags", func(st *testing.T) {
		cmd := scan()

		err := cmd.ParseFlags([]string{
			"--range", "10.0.0.0/30",
			"--protocol", "modbus",
			"--delay", "0s",
		})

		require.NoError(st, err)

		flags := &scanFlags{
			ranges:    []string{"10.0.0.0/30"},
			protocols: []string{"modbus"},
			delay:     0,
		}

		conf := config.Default()

		applyScanFlags(cmd, conf, flags)

		assert.Equal(st, []string{"10.0.0.0/30"}, conf.NetworkRanges)
		assert.Equal(st, []string{"modbus"}, conf.Protocols)
		assert.Equal(st, time.Duration(0), conf.RateLimitDelay)
		assert.Equal(st, config.Default().MaxConcurrent, conf.MaxConcurrent)
		assert.Equal(st, config.Default().ScanTimeout, conf.ScanTimeout)
	})

	t.Run("rejects unknown output", func(st *testing.T) {
		cmd := scan()
		cmd.SetArgs([]string{"--output", "xml"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})

		err := cmd.Execute()

		assert.ErrorContains(st, err, "invalid output")
	})
}

func TestVersion(t *testing.T) {
	buf := &bytes.Buffer{}

	cmd := version()
	cmd.SetOut(buf)
	cmd.Run(cmd, nil)

	assert.Equal(t, app_info.NAME+": "+app_info.VERSION+"\n", buf.String())
}
