package probe

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"
)

//go:generate mockgen -destination=../mock/probe/mock_probe.go -package=mock_probe . Probe,Identification

// Protocol identifies an industrial protocol spoken by a probe
type Protocol string

// Supported protocols
const (
	ProtocolModbus     Protocol = "modbus"
	ProtocolEthernetIP Protocol = "ethernet_ip"
	ProtocolMQTT       Protocol = "mqtt"
	ProtocolOPCUA      Protocol = "opcua"
)

// Protocols all supported protocols in the order they are swept
var Protocols = []Protocol{
	ProtocolModbus,
	ProtocolEthernetIP,
	ProtocolMQTT,
	ProtocolOPCUA,
}

var protocolAliases = map[string]Protocol{
	"modbus":      ProtocolModbus,
	"modbus_tcp":  ProtocolModbus,
	"modbus-tcp":  ProtocolModbus,
	"ethernet_ip": ProtocolEthernetIP,
	"ethernet/ip": ProtocolEthernetIP,
	"ethernetip":  ProtocolEthernetIP,
	"enip":        ProtocolEthernetIP,
	"mqtt":        ProtocolMQTT,
	"opcua":       ProtocolOPCUA,
	"opc-ua":      ProtocolOPCUA,
	"opc_ua":      ProtocolOPCUA,
}

// ParseProtocol maps a user supplied protocol name to a Protocol
func ParseProtocol(name string) (Protocol, bool) {
	p, ok := protocolAliases[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Endpoint an ip and port pair
type Endpoint struct {
	IP   string
	Port int
}

// Key returns the "ip:port" form used to key discovered devices
func (e Endpoint) Key() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

// TargetHost an address plus the candidate ports for a single protocol
type TargetHost struct {
	IP    string
	Ports []int
}

// Features protocol neutral view of an identification. This is everything
// the classifier is allowed to see.
type Features struct {
	Protocol               Protocol
	Port                   int
	ManufacturerHint       string
	ManufacturerConfidence float64
	DeviceTypeHint         string
	DeviceTypeConfidence   float64
	Model                  string
	Firmware               string
	Capabilities           []string
	Text                   []string
	AuthAdvertised         bool
}

// Identification the record produced by a successful handshake. Results are
// never mutated once returned.
type Identification interface {
	Protocol() Protocol
	Endpoint() Endpoint
	Features() Features
}

// Probe attempts a minimal handshake against a single host. A nil
// Identification with ErrNotDetected means something answered but did not
// speak the protocol; any other error is a transport failure.
type Probe interface {
	Protocol() Protocol
	Probe(ctx context.Context, target TargetHost) (Identification, error)
}

// Dialer abstraction over net.Dialer so tests can route addresses
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Options shared by all probes
type Options struct {
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	Dialer           Dialer
}

// DefaultOptions returns options with conservative timeouts
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:   2 * time.Second,
		HandshakeTimeout: 3 * time.Second,
		Dialer:           &net.Dialer{},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()

	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = d.ConnectTimeout
	}

	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = d.HandshakeTimeout
	}

	if o.Dialer == nil {
		o.Dialer = d.Dialer
	}

	return o
}

// dial opens a tcp connection bounded by the connect timeout and arms the
// handshake deadline on it
func (o Options) dial(ctx context.Context, ip string, port int) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	conn, err := o.Dialer.DialContext(
		dialCtx,
		"tcp",
		net.JoinHostPort(ip, strconv.Itoa(port)),
	)

	if err != nil {
		return nil, err
	}

	o.arm(conn)

	return conn, nil
}

// arm resets the handshake deadline on a connection
func (o Options) arm(conn net.Conn) {
	conn.SetDeadline(time.Now().Add(o.HandshakeTimeout))
}
