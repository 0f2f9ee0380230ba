package probe_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robgonnella/plcscout/internal/probe"
	"github.com/stretchr/testify/assert"
)

// broker answers CONNECT for the protocol levels in accept with code 0 and
// every other level with code 0x01
type broker struct {
	accept      map[byte]bool
	properties  []byte
	connects    atomic.Int32
	disconnects atomic.Int32
}

func (b *broker) handle(conn net.Conn) {
	r := bufio.NewReader(conn)

	packetType, err := r.ReadByte()

	if err != nil || packetType != 0x10 {
		return
	}

	length, err := probe.DecodeVarint(r)

	if err != nil {
		return
	}

	body := make([]byte, length)

	if _, err := io.ReadFull(r, body); err != nil {
		return
	}

	b.connects.Add(1)

	nameLen := int(binary.BigEndian.Uint16(body[0:2]))
	level := body[2+nameLen]

	code := byte(0x00)

	if !b.accept[level] {
		code = 0x01
	}

	ack := []byte{0x00, code}

	if level == 5 && code == 0 {
		propLen, _ := probe.EncodeVarint(len(b.properties))
		ack = append(ack, propLen...)
		ack = append(ack, b.properties...)
	}

	remaining, _ := probe.EncodeVarint(len(ack))

	conn.Write(append(append([]byte{0x20}, remaining...), ack...))

	if code != 0 {
		return
	}

	disconnect := make([]byte, 2)

	if _, err := io.ReadFull(r, disconnect); err == nil && disconnect[0] == 0xE0 {
		b.disconnects.Add(1)
	}
}

func mqttString(id byte, s string) []byte {
	out := append([]byte{id}, binary.BigEndian.AppendUint16(nil, uint16(len(s)))...)
	return append(out, s...)
}

func TestVarint(t *testing.T) {
	t.Run("round trips across encoding boundaries", func(st *testing.T) {
		cases := map[int]int{
			0:         1,
			127:       1,
			128:       2,
			16383:     2,
			16384:     3,
			2097151:   3,
			2097152:   4,
			268435455: 4,
		}

		for value, size := range cases {
			encoded, err := probe.EncodeVarint(value)

			assert.NoError(st, err)
			assert.Len(st, encoded, size)

			decoded, err := probe.DecodeVarint(bytes.NewReader(encoded))

			assert.NoError(st, err)
			assert.Equal(st, value, decoded)
		}
	})

	t.Run("rejects values outside range", func(st *testing.T) {
		_, err := probe.EncodeVarint(probe.MaxVarint + 1)
		assert.ErrorIs(st, err, probe.ErrVarintRange)

		_, err = probe.EncodeVarint(-1)
		assert.ErrorIs(st, err, probe.ErrVarintRange)
	})

	t.Run("rejects a fifth continuation byte", func(st *testing.T) {
		_, err := probe.DecodeVarint(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01}))
		assert.ErrorIs(st, err, probe.ErrMalformedVarint)
	})
}

func TestMQTTProbe(t *testing.T) {
	t.Run("falls back to 3.1.1 on a fresh connection", func(st *testing.T) {
		b := &broker{accept: map[byte]bool{4: true}}

		ip, port := serve(st, b.handle)

		p := probe.NewMQTT(testOptions())

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		res, ok := id.(*probe.MQTTResult)

		assert.True(st, ok)
		assert.Equal(st, probe.MQTT311, res.Version)
		assert.Equal(st, byte(0), res.ReturnCode)
		assert.Equal(st, probe.UnknownBroker, res.Manufacturer)
		assert.Equal(st, "MQTT 3.1.1 Broker", res.Model)
		assert.Equal(st, int32(2), b.connects.Load())
		assert.Contains(st, res.Capabilities, "mqtt_3_1_1")
	})

	t.Run("identifies broker from server reference", func(st *testing.T) {
		props := mqttString(0x1C, "mosquitto.local:1883")
		props = append(props, 0x22, 0x00, 0x0A)
		props = append(props, 0x28, 0x01)

		b := &broker{accept: map[byte]bool{5: true}, properties: props}

		ip, port := serve(st, b.handle)

		p := probe.NewMQTT(testOptions())

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		res := id.(*probe.MQTTResult)

		assert.Equal(st, probe.MQTT5, res.Version)
		assert.Equal(st, "Eclipse Foundation", res.Manufacturer)
		assert.Equal(st, "Eclipse Mosquitto", res.Model)
		assert.True(st, res.Identified)
		assert.Equal(st, uint16(10), *res.Properties.TopicAliasMaximum)
		assert.Contains(st, res.Capabilities, "wildcard_subscriptions")
		assert.Contains(st, res.Capabilities, "topic_aliases")
		assert.False(st, res.Properties.Truncated)

		features := res.Features()

		assert.Equal(st, 0.85, features.ManufacturerConfidence)
		assert.Contains(st, features.Text, "mosquitto.local:1883")
	})

	t.Run("keeps properties decoded before an unknown id", func(st *testing.T) {
		props := []byte{0x22, 0x00, 0x0A, 0x7F, 0x28, 0x01}

		b := &broker{accept: map[byte]bool{5: true}, properties: props}

		ip, port := serve(st, b.handle)

		p := probe.NewMQTT(testOptions())

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		res := id.(*probe.MQTTResult)

		assert.True(st, res.Properties.Truncated)
		assert.Equal(st, uint16(10), *res.Properties.TopicAliasMaximum)
		assert.Nil(st, res.Properties.WildcardSubAvailable)
	})

	t.Run("guesses model from advertised features", func(st *testing.T) {
		props := []byte{
			0x22, 0x00, 0x0A,
			0x28, 0x01,
			0x29, 0x01,
			0x2A, 0x01,
			0x27, 0x00, 0x10, 0x00, 0x00,
		}
		props = append(props, mqttString(0x15, "SCRAM-SHA-1")...)

		b := &broker{accept: map[byte]bool{5: true}, properties: props}

		ip, port := serve(st, b.handle)

		p := probe.NewMQTT(testOptions())

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		res := id.(*probe.MQTTResult)

		assert.Equal(st, probe.UnknownBroker, res.Manufacturer)
		assert.Equal(st, "Enterprise MQTT v5 Broker", res.Model)
		assert.True(st, res.Features().AuthAdvertised)
		assert.Contains(st, res.Capabilities, "enhanced_authentication")
	})

	t.Run("sends disconnect after a successful handshake", func(st *testing.T) {
		b := &broker{accept: map[byte]bool{5: true}}

		ip, port := serve(st, b.handle)

		p := probe.NewMQTT(testOptions())

		_, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)
		assert.Eventually(st, func() bool {
			return b.disconnects.Load() == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("returns nothing when every version is refused", func(st *testing.T) {
		b := &broker{accept: map[byte]bool{}}

		ip, port := serve(st, b.handle)

		p := probe.NewMQTT(testOptions())

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		var refused *probe.ConnackRefused

		assert.ErrorAs(st, err, &refused)
		assert.Equal(st, probe.MQTT31, refused.Version)
		assert.Nil(st, id)
		assert.Equal(st, int32(3), b.connects.Load())
	})

	t.Run("returns nothing for a non mqtt service", func(st *testing.T) {
		ip, port := serve(st, func(conn net.Conn) {
			conn.Write([]byte("SSH-2.0-OpenSSH_9.0\r\n"))
		})

		p := probe.NewMQTT(testOptions())

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.Error(st, err)
		assert.Nil(st, id)
	})

	t.Run("rejects an oversized connack without reading it", func(st *testing.T) {
		var connects atomic.Int32

		ip, port := serve(st, func(conn net.Conn) {
			connects.Add(1)
			conn.Write([]byte{0x20, 0xFF, 0xFF, 0xFF, 0x7F})
			// stall so a reader waiting for the body would block
			time.Sleep(2 * time.Second)
		})

		p := probe.NewMQTT(testOptions())

		start := time.Now()

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.ErrorIs(st, err, probe.ErrMalformedPacket)
		assert.Nil(st, id)
		assert.Equal(st, int32(3), connects.Load())
		assert.Less(st, time.Since(start), time.Second)
	})

	t.Run("generates a short client id", func(st *testing.T) {
		p := probe.NewMQTT(testOptions())

		assert.True(st, strings.HasPrefix(p.ClientID(), "plcscout-"))
		assert.LessOrEqual(st, len(p.ClientID()), 23)
	})
}
