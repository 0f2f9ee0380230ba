package probe_test

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robgonnella/plcscout/internal/probe"
	"github.com/stretchr/testify/assert"
)

type modbusRequest struct {
	txID    uint16
	unitID  byte
	pdu     []byte
	address uint16
}

// serveModbus answers every request with the frame returned by respond, a
// nil frame closes the connection
func serveModbus(t *testing.T, respond func(req modbusRequest) []byte) (string, int) {
	return serve(t, func(conn net.Conn) {
		for {
			header := make([]byte, 7)

			if _, err := io.ReadFull(conn, header); err != nil {
				return
			}

			pdu := make([]byte, int(binary.BigEndian.Uint16(header[4:6]))-1)

			if _, err := io.ReadFull(conn, pdu); err != nil {
				return
			}

			req := modbusRequest{
				txID:   binary.BigEndian.Uint16(header[0:2]),
				unitID: header[6],
				pdu:    pdu,
			}

			if len(pdu) >= 3 {
				req.address = binary.BigEndian.Uint16(pdu[1:3])
			}

			frame := respond(req)

			if frame == nil {
				return
			}

			conn.Write(frame)
		}
	})
}

func mbapFrame(txID, protocolID uint16, unitID byte, pdu []byte) []byte {
	frame := binary.BigEndian.AppendUint16(nil, txID)
	frame = binary.BigEndian.AppendUint16(frame, protocolID)
	frame = binary.BigEndian.AppendUint16(frame, uint16(len(pdu)+1))
	frame = append(frame, unitID)
	return append(frame, pdu...)
}

func exceptionFrame(req modbusRequest) []byte {
	return mbapFrame(req.txID, 0, req.unitID, []byte{req.pdu[0] | 0x80, 0x02})
}

func TestModbusProbe(t *testing.T) {
	t.Run("reports holding registers readable at address 1", func(st *testing.T) {
		ip, port := serveModbus(st, func(req modbusRequest) []byte {
			if req.pdu[0] == 0x03 && req.address == 1 {
				return mbapFrame(req.txID, 0, req.unitID, []byte{0x03, 0x02, 0x00, 0x2A})
			}
			return exceptionFrame(req)
		})

		p := probe.NewModbus(testOptions(), 1)

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		res, ok := id.(*probe.ModbusResult)

		assert.True(st, ok)
		assert.Equal(st, []string{probe.CapHoldingRegisters}, res.Capabilities)
		assert.Equal(st, []byte{0x03}, res.FunctionCodes)
		assert.Equal(st, probe.Endpoint{IP: ip, Port: port}, res.Endpoint())
	})

	t.Run("reports every register class that answers", func(st *testing.T) {
		ip, port := serveModbus(st, func(req modbusRequest) []byte {
			switch req.pdu[0] {
			case 0x01, 0x02:
				return mbapFrame(req.txID, 0, req.unitID, []byte{req.pdu[0], 0x01, 0x01})
			case 0x03, 0x04:
				return mbapFrame(req.txID, 0, req.unitID, []byte{req.pdu[0], 0x02, 0x00, 0x01})
			default:
				return exceptionFrame(req)
			}
		})

		p := probe.NewModbus(testOptions(), 1)

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		res := id.(*probe.ModbusResult)

		assert.ElementsMatch(
			st,
			[]string{
				probe.CapHoldingRegisters,
				probe.CapInputRegisters,
				probe.CapCoils,
				probe.CapDiscreteInputs,
			},
			res.Capabilities,
		)
	})

	t.Run("ignores responses with mismatched transaction id", func(st *testing.T) {
		ip, port := serveModbus(st, func(req modbusRequest) []byte {
			return mbapFrame(req.txID+1, 0, req.unitID, []byte{req.pdu[0], 0x02, 0x00, 0x2A})
		})

		p := probe.NewModbus(testOptions(), 1)

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		res := id.(*probe.ModbusResult)

		assert.False(st, res.HasCapability(probe.CapHoldingRegisters))
		assert.Empty(st, res.Capabilities)
	})

	t.Run("ignores responses with mismatched protocol id", func(st *testing.T) {
		ip, port := serveModbus(st, func(req modbusRequest) []byte {
			return mbapFrame(req.txID, 7, req.unitID, []byte{req.pdu[0], 0x02, 0x00, 0x2A})
		})

		p := probe.NewModbus(testOptions(), 1)

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)
		assert.Empty(st, id.(*probe.ModbusResult).Capabilities)
	})

	t.Run("ignores responses for another unit", func(st *testing.T) {
		ip, port := serveModbus(st, func(req modbusRequest) []byte {
			return mbapFrame(req.txID, 0, req.unitID+1, []byte{req.pdu[0], 0x02, 0x00, 0x2A})
		})

		p := probe.NewModbus(testOptions(), 1)

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)
		assert.Empty(st, id.(*probe.ModbusResult).Capabilities)
	})

	t.Run("reads device identification", func(st *testing.T) {
		ip, port := serveModbus(st, func(req modbusRequest) []byte {
			switch req.pdu[0] {
			case 0x03:
				return mbapFrame(req.txID, 0, req.unitID, []byte{0x03, 0x02, 0x00, 0x01})
			case 0x2B:
				pdu := []byte{0x2B, 0x0E, 0x01, 0x01, 0x00, 0x00, 0x03}
				for i, s := range []string{"Schneider Electric", "BMX P34 2020", "v3.20"} {
					pdu = append(pdu, byte(i), byte(len(s)))
					pdu = append(pdu, s...)
				}
				return mbapFrame(req.txID, 0, req.unitID, pdu)
			default:
				return exceptionFrame(req)
			}
		})

		p := probe.NewModbus(testOptions(), 1)

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		res := id.(*probe.ModbusResult)

		assert.Equal(st, "Schneider Electric", res.VendorName)
		assert.Equal(st, "BMX P34 2020", res.ProductCode)
		assert.Equal(st, "v3.20", res.Revision)
		assert.True(st, res.HasCapability(probe.CapDeviceIdentification))

		features := res.Features()

		assert.Equal(st, "Schneider Electric", features.ManufacturerHint)
		assert.Equal(st, "BMX P34 2020", features.Model)
		assert.Equal(st, "v3.20", features.Firmware)
	})

	t.Run("returns nothing when the connection fails", func(st *testing.T) {
		p := probe.NewModbus(testOptions(), 1)

		id, err := p.Probe(
			context.Background(),
			probe.TargetHost{IP: "127.0.0.1", Ports: []int{closedPort(st)}},
		)

		assert.Error(st, err)
		assert.Nil(st, id)
	})

	t.Run("never issues write function codes", func(st *testing.T) {
		functions := make(chan byte, 64)

		ip, port := serveModbus(st, func(req modbusRequest) []byte {
			functions <- req.pdu[0]
			return exceptionFrame(req)
		})

		p := probe.NewModbus(testOptions(), 1)

		_, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		assert.NoError(st, err)

		close(functions)

		for fc := range functions {
			assert.Contains(st, []byte{0x01, 0x02, 0x03, 0x04, 0x2B}, fc)
		}
	})

	t.Run("gives a silent host one handshake window", func(st *testing.T) {
		var connections atomic.Int32

		ip, port := serve(st, func(conn net.Conn) {
			connections.Add(1)
			io.Copy(io.Discard, conn)
		})

		p := probe.NewModbus(probe.Options{
			ConnectTimeout:   200 * time.Millisecond,
			HandshakeTimeout: 200 * time.Millisecond,
		}, 1)

		start := time.Now()

		id, err := p.Probe(context.Background(), probe.TargetHost{IP: ip, Ports: []int{port}})

		elapsed := time.Since(start)

		var netErr net.Error

		assert.ErrorAs(st, err, &netErr)
		assert.True(st, netErr.Timeout())
		assert.Nil(st, id)
		assert.Equal(st, int32(1), connections.Load())
		assert.GreaterOrEqual(st, elapsed, 200*time.Millisecond)
		assert.Less(st, elapsed, 600*time.Millisecond)
	})
}
