package probe

import (
	"bytes"
	"encoding/binary"
	"io"
)

// MaxVarint largest value representable as an MQTT variable byte integer
const MaxVarint = 268435455

const (
	mqttPacketConnect    byte = 0x10
	mqttPacketConnack    byte = 0x20
	mqttPacketDisconnect byte = 0xE0

	mqttFlagCleanSession byte = 0x02
	mqttKeepAliveSeconds      = 60

	// a CONNACK carries two bytes plus v5 properties, anything larger is not
	// a broker talking
	mqttMaxConnackSize = 4096
)

// MQTTVersion protocol level carried in CONNECT
type MQTTVersion byte

// Supported MQTT protocol levels
const (
	MQTT31  MQTTVersion = 3
	MQTT311 MQTTVersion = 4
	MQTT5   MQTTVersion = 5
)

// String returns the version as it is commonly written
func (v MQTTVersion) String() string {
	switch v {
	case MQTT31:
		return "3.1"
	case MQTT311:
		return "3.1.1"
	case MQTT5:
		return "5.0"
	default:
		return "unknown"
	}
}

func (v MQTTVersion) protocolName() string {
	if v == MQTT31 {
		return "MQIsdp"
	}
	return "MQTT"
}

// EncodeVarint encodes n as an MQTT variable byte integer: 7 bits of payload
// per byte, high bit set while more bytes follow, at most 4 bytes.
func EncodeVarint(n int) ([]byte, error) {
	if n < 0 || n > MaxVarint {
		return nil, ErrVarintRange
	}

	out := make([]byte, 0, 4)

	for {
		b := byte(n % 128)
		n /= 128

		if n > 0 {
			b |= 0x80
		}

		out = append(out, b)

		if n == 0 {
			return out, nil
		}
	}
}

// DecodeVarint reads one MQTT variable byte integer. Encodings whose fourth
// byte still carries a continuation bit are rejected.
func DecodeVarint(r io.ByteReader) (int, error) {
	value := 0
	multiplier := 1

	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()

		if err != nil {
			return 0, err
		}

		value += int(b&0x7F) * multiplier

		if b&0x80 == 0 {
			return value, nil
		}

		multiplier *= 128
	}

	return 0, ErrMalformedVarint
}

func appendMQTTString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

// buildConnect assembles a CONNECT packet with a clean session, a 60 second
// keep alive and, for v5, an explicit empty property list
func buildConnect(version MQTTVersion, clientID string) ([]byte, error) {
	body := appendMQTTString(nil, version.protocolName())
	body = append(body, byte(version), mqttFlagCleanSession)
	body = binary.BigEndian.AppendUint16(body, mqttKeepAliveSeconds)

	if version == MQTT5 {
		body = append(body, 0x00)
	}

	body = appendMQTTString(body, clientID)

	remaining, err := EncodeVarint(len(body))

	if err != nil {
		return nil, err
	}

	packet := append([]byte{mqttPacketConnect}, remaining...)

	return append(packet, body...), nil
}

func buildDisconnect() []byte {
	return []byte{mqttPacketDisconnect, 0x00}
}

// connack decoded CONNACK variable header
type connack struct {
	sessionPresent bool
	returnCode     byte
	properties     MQTTProperties
}

// readConnack reads one packet from r and decodes it as a CONNACK for the
// given protocol version
func readConnack(r io.Reader, version MQTTVersion) (*connack, error) {
	br := &byteReader{r: r}

	packetType, err := br.ReadByte()

	if err != nil {
		return nil, err
	}

	if packetType&0xF0 != mqttPacketConnack {
		return nil, ErrNotDetected
	}

	length, err := DecodeVarint(br)

	if err != nil {
		return nil, err
	}

	if length < 2 || length > mqttMaxConnackSize {
		return nil, ErrMalformedPacket
	}

	body := make([]byte, length)

	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	return parseConnack(body, version)
}

func parseConnack(body []byte, version MQTTVersion) (*connack, error) {
	if len(body) < 2 {
		return nil, ErrMalformedPacket
	}

	ack := &connack{
		sessionPresent: body[0]&0x01 == 0x01,
		returnCode:     body[1],
	}

	if version != MQTT5 || len(body) == 2 {
		return ack, nil
	}

	rest := bytes.NewReader(body[2:])

	propLen, err := DecodeVarint(rest)

	if err != nil {
		return nil, err
	}

	if propLen > rest.Len() {
		propLen = rest.Len()
	}

	props := make([]byte, propLen)
	rest.Read(props)

	ack.properties = parseProperties(props)

	return ack, nil
}

// byteReader adapts an io.Reader to io.ByteReader without buffering ahead
type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		return 0, err
	}
	return b.buf[0], nil
}
