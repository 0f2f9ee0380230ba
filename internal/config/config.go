package config

import (
	"fmt"
	"os"
	"time"

	"github.com/imdario/mergo"
	"github.com/robgonnella/plcscout/internal/probe"
	"gopkg.in/yaml.v3"
)

// Prefilter modes
const (
	PrefilterNone = "none"
	PrefilterNmap = "nmap"
)

// Ports candidate ports per protocol
type Ports struct {
	Modbus     []int `yaml:"modbus" json:"modbus"`
	EthernetIP []int `yaml:"ethernet_ip" json:"ethernet_ip"`
	MQTT       []int `yaml:"mqtt" json:"mqtt"`
	OPCUA      []int `yaml:"opcua" json:"opcua"`
}

// For returns the ports configured for a protocol
func (p Ports) For(protocol probe.Protocol) []int {
	switch protocol {
	case probe.ProtocolModbus:
		return p.Modbus
	case probe.ProtocolEthernetIP:
		return p.EthernetIP
	case probe.ProtocolMQTT:
		return p.MQTT
	case probe.ProtocolOPCUA:
		return p.OPCUA
	default:
		return nil
	}
}

// Config represents the data structure of a scan configuration document.
// Every field may be omitted, omitted fields take their default.
type Config struct {
	NetworkRanges    []string      `yaml:"network_ranges" json:"network_ranges"`
	Ports            Ports         `yaml:"ports" json:"ports"`
	Protocols        []string      `yaml:"protocols" json:"protocols"`
	ScanTimeout      time.Duration `yaml:"scan_timeout" json:"scan_timeout"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
	MaxConcurrent    int           `yaml:"max_concurrent" json:"max_concurrent"`
	RateLimitDelay   time.Duration `yaml:"rate_limit_delay" json:"rate_limit_delay"`
	ModbusUnitID     uint8         `yaml:"modbus_unit_id" json:"modbus_unit_id"`
	MaxHostsPerRange int           `yaml:"max_hosts_per_range" json:"max_hosts_per_range"`
	EmergencyStop    bool          `yaml:"emergency_stop" json:"emergency_stop"`
	Prefilter        string        `yaml:"prefilter" json:"prefilter"`
	CacheDatabase    string        `yaml:"cache_database" json:"cache_database"`
}

// Default returns a fully populated configuration. Network ranges are left
// empty, callers fill them from the local network.
func Default() *Config {
	return &Config{
		NetworkRanges: []string{},
		Ports: Ports{
			Modbus:     []int{502},
			EthernetIP: []int{44818, 2222},
			MQTT:       []int{1883, 8883},
			OPCUA:      []int{4840},
		},
		Protocols: []string{
			string(probe.ProtocolModbus),
			string(probe.ProtocolEthernetIP),
			string(probe.ProtocolMQTT),
			string(probe.ProtocolOPCUA),
		},
		ScanTimeout:      5 * time.Minute,
		ConnectTimeout:   2 * time.Second,
		HandshakeTimeout: 3 * time.Second,
		MaxConcurrent:    10,
		RateLimitDelay:   100 * time.Millisecond,
		ModbusUnitID:     1,
		MaxHostsPerRange: 254,
		EmergencyStop:    false,
		Prefilter:        PrefilterNone,
		CacheDatabase:    "",
	}
}

// New returns unmarshaled data structure of a user provided config file with
// every omitted field defaulted
func New(confPath string) (*Config, error) {
	var conf Config

	raw, err := os.ReadFile(confPath)

	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(raw, &conf); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", confPath, err)
	}

	return Merge(Default(), &conf)
}

// Merge returns a new configuration made of every field set in override and
// base for everything else. Neither argument is modified.
func Merge(base, override *Config) (*Config, error) {
	merged := override.Copy()

	if err := mergo.Merge(merged, base.Copy()); err != nil {
		return nil, err
	}

	return merged, nil
}

// Copy returns a deep copy
func (c *Config) Copy() *Config {
	cp := *c
	cp.NetworkRanges = copySlice(c.NetworkRanges)
	cp.Protocols = copySlice(c.Protocols)
	cp.Ports = Ports{
		Modbus:     copySlice(c.Ports.Modbus),
		EthernetIP: copySlice(c.Ports.EthernetIP),
		MQTT:       copySlice(c.Ports.MQTT),
		OPCUA:      copySlice(c.Ports.OPCUA),
	}
	return &cp
}

// Write encodes the configuration as yaml to path
func Write(conf *Config, path string) error {
	file, err := os.Create(path)

	if err != nil {
		return err
	}

	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)

	if err := encoder.Encode(conf); err != nil {
		return err
	}

	return encoder.Close()
}

func copySlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T{}, s...)
}
