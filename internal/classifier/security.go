package classifier

import (
	"net"

	"github.com/robgonnella/plcscout/internal/probe"
)

// Security level estimates
const (
	SecurityLevelUnknown = "unknown"
	SecurityLevelLow     = "low"
	SecurityLevelMedium  = "medium"
)

// Network zone estimates
const (
	ZoneUnknown     = "unknown"
	ZoneControl     = "control"
	ZoneSupervisory = "supervisory"
	ZoneDMZ         = "dmz"
	ZoneLocal       = "local"
	ZoneExternal    = "external"
)

const mqttTLSPort = 8883

var controlTypes = map[string]bool{
	TypePLC:           true,
	TypeIOModule:      true,
	TypeDrive:         true,
	TypeSensor:        true,
	TypeNetworkSwitch: true,
}

var supervisoryTypes = map[string]bool{
	TypeHMI:     true,
	TypeGateway: true,
}

// SecurityLevel estimates how well an endpoint protects itself. None of the
// probed protocols authenticate except MQTT, and only when the broker says so.
func SecurityLevel(f probe.Features) string {
	if f.Protocol == "" {
		return SecurityLevelUnknown
	}

	if f.Protocol == probe.ProtocolMQTT && (f.AuthAdvertised || f.Port == mqttTLSPort) {
		return SecurityLevelMedium
	}

	return SecurityLevelLow
}

// NetworkZone estimates where an endpoint sits in a Purdue style layout from
// its address and classified device type
func NetworkZone(ip string, port int, deviceType string) string {
	addr := net.ParseIP(ip)

	if addr == nil {
		return ZoneUnknown
	}

	if addr.IsLoopback() {
		return ZoneLocal
	}

	if !addr.IsPrivate() && !addr.IsLinkLocalUnicast() {
		return ZoneExternal
	}

	switch {
	case controlTypes[deviceType]:
		return ZoneControl
	case supervisoryTypes[deviceType]:
		return ZoneSupervisory
	case deviceType == TypeBroker && port == mqttTLSPort:
		return ZoneDMZ
	case deviceType == TypeBroker:
		return ZoneSupervisory
	default:
		return ZoneLocal
	}
}
