package probe

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/robgonnella/plcscout/internal/logger"
)

const (
	uaHeaderLen       = 8
	uaAckBodyLen      = 20
	uaBufferSize      = 65535
	uaMaxResponseSize = 4096
)

var (
	uaMessageHello       = [3]byte{'H', 'E', 'L'}
	uaMessageAcknowledge = [3]byte{'A', 'C', 'K'}
	uaMessageError       = [3]byte{'E', 'R', 'R'}
)

// OPCUAResult what an OPC UA server disclosed in reply to Hello
type OPCUAResult struct {
	Target            Endpoint
	EndpointURL       string
	Acknowledged      bool
	ProtocolVersion   uint32
	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32
	MaxChunkCount     uint32
	ErrorCode         uint32
	ErrorReason       string
}

// Protocol implements Identification
func (r *OPCUAResult) Protocol() Protocol {
	return ProtocolOPCUA
}

// Endpoint implements Identification
func (r *OPCUAResult) Endpoint() Endpoint {
	return r.Target
}

// Features implements Identification
func (r *OPCUAResult) Features() Features {
	f := Features{
		Protocol:     ProtocolOPCUA,
		Port:         r.Target.Port,
		Capabilities: []string{"opcua_binary"},
	}

	if r.Acknowledged {
		f.Firmware = fmt.Sprintf("UA TCP v%d", r.ProtocolVersion)
		f.Capabilities = append(f.Capabilities, "hello_acknowledged")

		if r.MaxChunkCount != 1 {
			f.Capabilities = append(f.Capabilities, "chunked_messages")
		}
	} else {
		f.Capabilities = append(f.Capabilities, "hello_rejected")
	}

	if r.ErrorReason != "" {
		f.Text = append(f.Text, r.ErrorReason)
	}

	return f
}

// OPCUA probe sending an OPC UA Binary Hello
type OPCUA struct {
	opts Options
	log  logger.Logger
}

// NewOPCUA returns a new OPC UA probe
func NewOPCUA(opts Options) *OPCUA {
	return &OPCUA{
		opts: opts.withDefaults(),
		log:  logger.Named("opcua"),
	}
}

// Protocol implements Probe
func (o *OPCUA) Protocol() Protocol {
	return ProtocolOPCUA
}

// Probe implements Probe. Both ACK and ERR replies identify a server.
func (o *OPCUA) Probe(ctx context.Context, target TargetHost) (Identification, error) {
	var lastErr error = ErrNotDetected

	for _, port := range target.Ports {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		res, err := o.probePort(ctx, target.IP, port)

		if err == nil {
			return res, nil
		}

		o.log.Debug().Str("ip", target.IP).Int("port", port).Err(err).Msg("opcua hello failed")

		lastErr = err
	}

	return nil, lastErr
}

func (o *OPCUA) probePort(ctx context.Context, ip string, port int) (*OPCUAResult, error) {
	conn, err := o.opts.dial(ctx, ip, port)

	if err != nil {
		return nil, err
	}

	defer conn.Close()

	url := "opc.tcp://" + net.JoinHostPort(ip, strconv.Itoa(port))

	if _, err := conn.Write(helloMessage(url)); err != nil {
		return nil, err
	}

	res, err := readHelloReply(conn)

	if err != nil {
		return nil, err
	}

	res.Target = Endpoint{IP: ip, Port: port}
	res.EndpointURL = url

	return res, nil
}

// helloMessage protocol version 0, 64k buffers, no message or chunk limits
func helloMessage(endpointURL string) []byte {
	body := binary.LittleEndian.AppendUint32(nil, 0)
	body = binary.LittleEndian.AppendUint32(body, uaBufferSize)
	body = binary.LittleEndian.AppendUint32(body, uaBufferSize)
	body = binary.LittleEndian.AppendUint32(body, 0)
	body = binary.LittleEndian.AppendUint32(body, 0)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(endpointURL)))
	body = append(body, endpointURL...)

	msg := append(uaMessageHello[:], 'F')
	msg = binary.LittleEndian.AppendUint32(msg, uint32(uaHeaderLen+len(body)))

	return append(msg, body...)
}

func readHelloReply(r io.Reader) (*OPCUAResult, error) {
	header := make([]byte, uaHeaderLen)

	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	size := int(binary.LittleEndian.Uint32(header[4:8]))

	if size < uaHeaderLen || size > uaMaxResponseSize {
		return nil, ErrMalformedPacket
	}

	body := make([]byte, size-uaHeaderLen)

	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	return parseHelloReply([3]byte(header[0:3]), body)
}

func parseHelloReply(messageType [3]byte, body []byte) (*OPCUAResult, error) {
	switch messageType {
	case uaMessageAcknowledge:
		if len(body) < uaAckBodyLen {
			return nil, ErrMalformedPacket
		}

		return &OPCUAResult{
			Acknowledged:      true,
			ProtocolVersion:   binary.LittleEndian.Uint32(body[0:4]),
			ReceiveBufferSize: binary.LittleEndian.Uint32(body[4:8]),
			SendBufferSize:    binary.LittleEndian.Uint32(body[8:12]),
			MaxMessageSize:    binary.LittleEndian.Uint32(body[12:16]),
			MaxChunkCount:     binary.LittleEndian.Uint32(body[16:20]),
		}, nil
	case uaMessageError:
		if len(body) < 4 {
			return nil, ErrMalformedPacket
		}

		res := &OPCUAResult{ErrorCode: binary.LittleEndian.Uint32(body[0:4])}

		// reason is an int32 length prefixed string, -1 for null
		if len(body) >= 8 {
			n := int32(binary.LittleEndian.Uint32(body[4:8]))
			if n > 0 && int(n) <= len(body)-8 {
				res.ErrorReason = string(body[8 : 8+n])
			}
		}

		return res, nil
	default:
		return nil, ErrNotDetected
	}
}
