package config

import (
	"fmt"

	"github.com/robgonnella/plcscout/internal/probe"
)

// Validate normalizes the configuration in place and returns a warning for
// every value it had to drop or replace. Nothing here fails a scan.
func (c *Config) Validate() []string {
	warnings := []string{}
	defaults := Default()

	protocols := []string{}
	seen := map[probe.Protocol]bool{}

	for _, name := range c.Protocols {
		p, ok := probe.ParseProtocol(name)

		if !ok {
			warnings = append(warnings, fmt.Sprintf("unsupported protocol %q skipped", name))
			continue
		}

		if seen[p] {
			continue
		}

		seen[p] = true
		protocols = append(protocols, string(p))
	}

	c.Protocols = protocols

	if len(protocols) == 0 {
		warnings = append(warnings, "no supported protocols enabled")
	}

	for _, p := range c.EnabledProtocols() {
		if len(c.Ports.For(p)) == 0 {
			warnings = append(warnings, fmt.Sprintf("no ports configured for %s, using defaults", p))
			c.setPorts(p, defaults.Ports.For(p))
		}
	}

	if c.MaxConcurrent < 1 {
		warnings = append(warnings, fmt.Sprintf("max_concurrent %d invalid, using %d", c.MaxConcurrent, defaults.MaxConcurrent))
		c.MaxConcurrent = defaults.MaxConcurrent
	}

	if c.RateLimitDelay < 0 {
		warnings = append(warnings, "negative rate_limit_delay, using 0")
		c.RateLimitDelay = 0
	}

	if c.MaxHostsPerRange < 1 {
		warnings = append(warnings, fmt.Sprintf("max_hosts_per_range %d invalid, using %d", c.MaxHostsPerRange, defaults.MaxHostsPerRange))
		c.MaxHostsPerRange = defaults.MaxHostsPerRange
	}

	switch c.Prefilter {
	case PrefilterNone, PrefilterNmap:
	case "":
		c.Prefilter = PrefilterNone
	default:
		warnings = append(warnings, fmt.Sprintf("unknown prefilter %q, using %s", c.Prefilter, PrefilterNone))
		c.Prefilter = PrefilterNone
	}

	return warnings
}

// EnabledProtocols returns the recognised protocols in configured order
func (c *Config) EnabledProtocols() []probe.Protocol {
	protocols := []probe.Protocol{}

	for _, name := range c.Protocols {
		if p, ok := probe.ParseProtocol(name); ok {
			protocols = append(protocols, p)
		}
	}

	return protocols
}

// ProbeOptions returns probe timeouts taken from the configuration
func (c *Config) ProbeOptions() probe.Options {
	return probe.Options{
		ConnectTimeout:   c.ConnectTimeout,
		HandshakeTimeout: c.HandshakeTimeout,
	}
}

func (c *Config) setPorts(p probe.Protocol, ports []int) {
	switch p {
	case probe.ProtocolModbus:
		c.Ports.Modbus = ports
	case probe.ProtocolEthernetIP:
		c.Ports.EthernetIP = ports
	case probe.ProtocolMQTT:
		c.Ports.MQTT = ports
	case probe.ProtocolOPCUA:
		c.Ports.OPCUA = ports
	}
}
