package discovery

import (
	"bytes"
	"net"
	"sort"
	"time"

	"github.com/robgonnella/plcscout/internal/classifier"
	"github.com/robgonnella/plcscout/internal/probe"
)

// DeviceStatus connection status of a discovered device
type DeviceStatus string

// StatusOnline the device answered during the current scan
const StatusOnline DeviceStatus = "online"

// DiscoveredDevice the orchestrator's unit of output, keyed by ip and port
type DiscoveredDevice struct {
	IP              string         `json:"ip_address" yaml:"ip_address"`
	Port            int            `json:"port" yaml:"port"`
	Protocol        probe.Protocol `json:"protocol" yaml:"protocol"`
	DeviceType      string         `json:"device_type" yaml:"device_type"`
	Manufacturer    string         `json:"manufacturer" yaml:"manufacturer"`
	Model           string         `json:"model" yaml:"model"`
	FirmwareVersion string         `json:"firmware_version" yaml:"firmware_version"`
	ConfidenceScore float64        `json:"confidence_score" yaml:"confidence_score"`
	Capabilities    []string       `json:"capabilities" yaml:"capabilities"`
	SecurityLevel   string         `json:"security_level" yaml:"security_level"`
	NetworkZone     string         `json:"network_zone" yaml:"network_zone"`
	Fingerprint     string         `json:"fingerprint" yaml:"fingerprint"`
	LastSeen        time.Time      `json:"last_seen" yaml:"last_seen"`
	Status          DeviceStatus   `json:"status" yaml:"status"`
}

// Key returns the "ip:port" key of the device
func (d *DiscoveredDevice) Key() string {
	return probe.Endpoint{IP: d.IP, Port: d.Port}.Key()
}

// Copy returns a deep copy of the device
func (d *DiscoveredDevice) Copy() *DiscoveredDevice {
	cp := *d
	cp.Capabilities = append([]string{}, d.Capabilities...)
	return &cp
}

func newDevice(id probe.Identification, c *classifier.Classification) *DiscoveredDevice {
	endpoint := id.Endpoint()

	return &DiscoveredDevice{
		IP:              endpoint.IP,
		Port:            endpoint.Port,
		Protocol:        id.Protocol(),
		DeviceType:      c.DeviceType,
		Manufacturer:    c.Manufacturer,
		Model:           c.Model,
		FirmwareVersion: c.Firmware,
		ConfidenceScore: c.Confidence,
		Capabilities:    append([]string{}, c.Capabilities...),
		SecurityLevel:   c.SecurityLevel,
		NetworkZone:     c.NetworkZone,
		Fingerprint:     c.Fingerprint.Hash,
		Status:          StatusOnline,
	}
}

// Snapshot discovered devices grouped by protocol, each list ordered by
// address then port
type Snapshot map[probe.Protocol][]*DiscoveredDevice

// Count returns the number of devices across all protocols
func (s Snapshot) Count() int {
	count := 0

	for _, devices := range s {
		count += len(devices)
	}

	return count
}

// Devices returns every device in protocol order
func (s Snapshot) Devices() []*DiscoveredDevice {
	devices := []*DiscoveredDevice{}

	for _, p := range probe.Protocols {
		devices = append(devices, s[p]...)
	}

	return devices
}

func newSnapshot(devices map[string]*DiscoveredDevice) Snapshot {
	snapshot := Snapshot{}

	for _, d := range devices {
		snapshot[d.Protocol] = append(snapshot[d.Protocol], d.Copy())
	}

	for _, list := range snapshot {
		sortDevices(list)
	}

	return snapshot
}

func sortDevices(devices []*DiscoveredDevice) {
	sort.Slice(devices, func(i, j int) bool {
		if cmp := compareIP(devices[i].IP, devices[j].IP); cmp != 0 {
			return cmp < 0
		}
		return devices[i].Port < devices[j].Port
	})
}

func compareIP(a, b string) int {
	ipA := net.ParseIP(a)
	ipB := net.ParseIP(b)

	if ipA == nil || ipB == nil {
		return bytes.Compare([]byte(a), []byte(b))
	}

	return bytes.Compare(ipA.To16(), ipB.To16())
}
