package probe

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/robgonnella/plcscout/internal/logger"
)

const (
	encapHeaderLen        = 24
	encapCmdListIdentity  = 0x0063
	encapStatusSuccess    = 0x00000000
	cipItemIdentity       = 0x000C
	maxEncapPayload       = 65511
	identitySocketAddrLen = 16

	// protocol version(2) + socket address(16) + vendor(2) + device type(2) +
	// product code(2) + revision(2) + status(2) + serial(4) + name length(1)
	identityFixedLen = 33
)

// EthernetIPResult identification parsed from a List Identity reply
type EthernetIPResult struct {
	Target          Endpoint
	EncapVersion    uint16
	VendorID        uint16
	Vendor          string
	DeviceTypeID    uint16
	DeviceType      string
	ProductCode     uint16
	RevisionMajor   uint8
	RevisionMinor   uint8
	Status          uint16
	SerialNumber    uint32
	ProductName     string
	State           uint8
	ReportedIP      string
	ReportedPort    uint16
	Capabilities    []string
	vendorKnown     bool
	deviceTypeKnown bool
}

// Protocol implements Identification
func (r *EthernetIPResult) Protocol() Protocol {
	return ProtocolEthernetIP
}

// Endpoint implements Identification
func (r *EthernetIPResult) Endpoint() Endpoint {
	return r.Target
}

// Revision formats the major.minor revision
func (r *EthernetIPResult) Revision() string {
	return fmt.Sprintf("%d.%03d", r.RevisionMajor, r.RevisionMinor)
}

// SerialHex formats the serial number the way vendor tools display it
func (r *EthernetIPResult) SerialHex() string {
	return fmt.Sprintf("0x%08x", r.SerialNumber)
}

// Features implements Identification
func (r *EthernetIPResult) Features() Features {
	f := Features{
		Protocol:         ProtocolEthernetIP,
		Port:             r.Target.Port,
		ManufacturerHint: r.Vendor,
		DeviceTypeHint:   r.DeviceType,
		Model:            r.ProductName,
		Firmware:         r.Revision(),
		Capabilities:     append([]string{}, r.Capabilities...),
	}

	f.ManufacturerConfidence = 0.3
	if r.vendorKnown {
		f.ManufacturerConfidence = 0.95
	}

	f.DeviceTypeConfidence = 0.2
	if r.deviceTypeKnown {
		f.DeviceTypeConfidence = 0.9
	}

	if r.ProductName != "" {
		f.Text = append(f.Text, r.ProductName)
	}

	if r.deviceTypeKnown {
		f.Text = append(f.Text, r.DeviceType)
	}

	return f
}

// EthernetIP probe sending the List Identity encapsulation command
type EthernetIP struct {
	opts Options
	log  logger.Logger
}

// NewEthernetIP returns a new EtherNet/IP probe
func NewEthernetIP(opts Options) *EthernetIP {
	return &EthernetIP{
		opts: opts.withDefaults(),
		log:  logger.Named("ethernet_ip"),
	}
}

// Protocol implements Probe
func (e *EthernetIP) Protocol() Protocol {
	return ProtocolEthernetIP
}

// Probe implements Probe. Ports are tried in order, first valid identity wins.
func (e *EthernetIP) Probe(ctx context.Context, target TargetHost) (Identification, error) {
	var lastErr error = ErrNotDetected

	for _, port := range target.Ports {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		res, err := e.probePort(ctx, target.IP, port)

		if err == nil {
			return res, nil
		}

		e.log.Debug().Str("ip", target.IP).Int("port", port).Err(err).Msg("list identity failed")

		lastErr = err
	}

	return nil, lastErr
}

func (e *EthernetIP) probePort(ctx context.Context, ip string, port int) (*EthernetIPResult, error) {
	conn, err := e.opts.dial(ctx, ip, port)

	if err != nil {
		return nil, err
	}

	defer conn.Close()

	if _, err := conn.Write(listIdentityRequest()); err != nil {
		return nil, err
	}

	packet, err := readEncapsulation(conn)

	if err != nil {
		return nil, err
	}

	res, err := parseListIdentity(packet)

	if err != nil {
		return nil, err
	}

	res.Target = Endpoint{IP: ip, Port: port}

	return res, nil
}

// listIdentityRequest a bare 24 byte encapsulation header: command List
// Identity, zero length, zero session, zero status, zero context and options
func listIdentityRequest() []byte {
	req := make([]byte, encapHeaderLen)
	binary.LittleEndian.PutUint16(req[0:2], encapCmdListIdentity)
	return req
}

// readEncapsulation reads one encapsulation header plus the payload its
// length field announces
func readEncapsulation(conn net.Conn) ([]byte, error) {
	header := make([]byte, encapHeaderLen)

	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}

	length := int(binary.LittleEndian.Uint16(header[2:4]))

	if length > maxEncapPayload {
		return nil, ErrMalformedPacket
	}

	packet := make([]byte, encapHeaderLen+length)
	copy(packet, header)

	if _, err := io.ReadFull(conn, packet[encapHeaderLen:]); err != nil {
		return nil, err
	}

	return packet, nil
}

// parseListIdentity validates the encapsulation header before touching the
// payload and decodes the first CIP Identity item
func parseListIdentity(packet []byte) (*EthernetIPResult, error) {
	if len(packet) < encapHeaderLen {
		return nil, ErrMalformedPacket
	}

	if binary.LittleEndian.Uint16(packet[0:2]) != encapCmdListIdentity {
		return nil, ErrNotDetected
	}

	if binary.LittleEndian.Uint32(packet[8:12]) != encapStatusSuccess {
		return nil, ErrNotDetected
	}

	payload := packet[encapHeaderLen:]

	if len(payload) < 2 {
		return nil, ErrMalformedPacket
	}

	if binary.LittleEndian.Uint16(payload[0:2]) == 0 {
		return nil, ErrNotDetected
	}

	if len(payload) < 6 {
		return nil, ErrMalformedPacket
	}

	itemType := binary.LittleEndian.Uint16(payload[2:4])
	itemLen := int(binary.LittleEndian.Uint16(payload[4:6]))

	if itemType != cipItemIdentity {
		return nil, ErrNotDetected
	}

	item := payload[6:]

	if itemLen < identityFixedLen || len(item) < itemLen {
		return nil, ErrMalformedPacket
	}

	item = item[:itemLen]

	res := &EthernetIPResult{
		EncapVersion: binary.LittleEndian.Uint16(item[0:2]),
	}

	// socket address is big endian: family, port, address, zero padding
	sockAddr := item[2 : 2+identitySocketAddrLen]
	res.ReportedPort = binary.BigEndian.Uint16(sockAddr[2:4])
	res.ReportedIP = net.IP(sockAddr[4:8]).String()

	rest := item[2+identitySocketAddrLen:]
	res.VendorID = binary.LittleEndian.Uint16(rest[0:2])
	res.DeviceTypeID = binary.LittleEndian.Uint16(rest[2:4])
	res.ProductCode = binary.LittleEndian.Uint16(rest[4:6])
	res.RevisionMajor = rest[6]
	res.RevisionMinor = rest[7]
	res.Status = binary.LittleEndian.Uint16(rest[8:10])
	res.SerialNumber = binary.LittleEndian.Uint32(rest[10:14])

	nameLen := int(rest[14])
	nameEnd := 15 + nameLen

	if nameEnd > len(rest) {
		return nil, ErrMalformedPacket
	}

	res.ProductName = string(rest[15:nameEnd])

	if nameEnd < len(rest) {
		res.State = rest[nameEnd]
	}

	res.Vendor, res.vendorKnown = LookupVendor(res.VendorID)
	res.DeviceType, res.deviceTypeKnown = LookupDeviceType(res.DeviceTypeID)
	res.Capabilities = enipCapabilities(res.VendorID, res.DeviceTypeID)

	return res, nil
}
