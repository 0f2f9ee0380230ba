package probe

import (
	"bytes"
	"encoding/binary"
	"io"
)

// MQTT v5 CONNACK property identifiers
const (
	propSessionExpiryInterval  byte = 0x11
	propAssignedClientID       byte = 0x12
	propServerKeepAlive        byte = 0x13
	propAuthenticationMethod   byte = 0x15
	propAuthenticationData     byte = 0x16
	propResponseInformation    byte = 0x1A
	propServerReference        byte = 0x1C
	propReasonString           byte = 0x1F
	propReceiveMaximum         byte = 0x21
	propTopicAliasMaximum      byte = 0x22
	propMaximumQoS             byte = 0x24
	propRetainAvailable        byte = 0x25
	propUserProperty           byte = 0x26
	propMaximumPacketSize      byte = 0x27
	propWildcardSubAvailable   byte = 0x28
	propSubIdentifierAvailable byte = 0x29
	propSharedSubAvailable     byte = 0x2A
)

// MQTTProperties the v5 CONNACK properties a broker chose to reveal. Pointer
// fields are nil when the property was absent.
type MQTTProperties struct {
	SessionExpiryInterval  *uint32
	AssignedClientID       string
	ServerKeepAlive        *uint16
	AuthenticationMethod   string
	ResponseInformation    string
	ServerReference        string
	ReasonString           string
	ReceiveMaximum         *uint16
	TopicAliasMaximum      *uint16
	MaximumQoS             *uint8
	RetainAvailable        *bool
	MaximumPacketSize      *uint32
	WildcardSubAvailable   *bool
	SubIdentifierAvailable *bool
	SharedSubAvailable     *bool
	UserProperties         map[string]string
	Truncated              bool
}

// AdvancedFeatureCount number of optional v5 features the broker reported
func (p MQTTProperties) AdvancedFeatureCount() int {
	count := 0

	for _, b := range []*bool{p.WildcardSubAvailable, p.SubIdentifierAvailable, p.SharedSubAvailable} {
		if b != nil && *b {
			count++
		}
	}

	if p.TopicAliasMaximum != nil && *p.TopicAliasMaximum > 0 {
		count++
	}

	if p.MaximumPacketSize != nil {
		count++
	}

	if p.ServerKeepAlive != nil {
		count++
	}

	if p.SessionExpiryInterval != nil {
		count++
	}

	return count
}

// parseProperties decodes as many properties as it understands. An
// unrecognised identifier or a short read stops parsing and marks the set
// truncated; whatever was decoded up to that point is kept.
func parseProperties(raw []byte) MQTTProperties {
	props := MQTTProperties{}
	r := bytes.NewReader(raw)

	for r.Len() > 0 {
		id, _ := r.ReadByte()

		if err := props.decode(id, r); err != nil {
			props.Truncated = true
			return props
		}
	}

	return props
}

func (p *MQTTProperties) decode(id byte, r *bytes.Reader) error {
	switch id {
	case propSessionExpiryInterval:
		v, err := readUint32(r)
		if err != nil {
			return err
		}
		p.SessionExpiryInterval = &v
	case propAssignedClientID:
		return readStringInto(r, &p.AssignedClientID)
	case propServerKeepAlive:
		v, err := readUint16(r)
		if err != nil {
			return err
		}
		p.ServerKeepAlive = &v
	case propAuthenticationMethod:
		return readStringInto(r, &p.AuthenticationMethod)
	case propAuthenticationData:
		_, err := readBinary(r)
		return err
	case propResponseInformation:
		return readStringInto(r, &p.ResponseInformation)
	case propServerReference:
		return readStringInto(r, &p.ServerReference)
	case propReasonString:
		return readStringInto(r, &p.ReasonString)
	case propReceiveMaximum:
		v, err := readUint16(r)
		if err != nil {
			return err
		}
		p.ReceiveMaximum = &v
	case propTopicAliasMaximum:
		v, err := readUint16(r)
		if err != nil {
			return err
		}
		p.TopicAliasMaximum = &v
	case propMaximumQoS:
		v, err := r.ReadByte()
		if err != nil {
			return err
		}
		p.MaximumQoS = &v
	case propRetainAvailable:
		return readFlagInto(r, &p.RetainAvailable)
	case propUserProperty:
		var key, value string
		if err := readStringInto(r, &key); err != nil {
			return err
		}
		if err := readStringInto(r, &value); err != nil {
			return err
		}
		if p.UserProperties == nil {
			p.UserProperties = map[string]string{}
		}
		p.UserProperties[key] = value
	case propMaximumPacketSize:
		v, err := readUint32(r)
		if err != nil {
			return err
		}
		p.MaximumPacketSize = &v
	case propWildcardSubAvailable:
		return readFlagInto(r, &p.WildcardSubAvailable)
	case propSubIdentifierAvailable:
		return readFlagInto(r, &p.SubIdentifierAvailable)
	case propSharedSubAvailable:
		return readFlagInto(r, &p.SharedSubAvailable)
	default:
		return ErrMalformedPacket
	}

	return nil
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readBinary(r *bytes.Reader) ([]byte, error) {
	n, err := readUint16(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readStringInto(r *bytes.Reader, dst *string) error {
	b, err := readBinary(r)
	if err != nil {
		return err
	}
	*dst = string(b)
	return nil
}

func readFlagInto(r *bytes.Reader, dst **bool) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	v := b == 1
	*dst = &v
	return nil
}
