package probe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/robgonnella/plcscout/internal/logger"
)

const (
	mbapHeaderLen    = 7
	modbusProtocolID = 0
	maxModbusPDU     = 253

	fcReadCoils             byte = 0x01
	fcReadDiscreteInputs    byte = 0x02
	fcReadHoldingRegisters  byte = 0x03
	fcReadInputRegisters    byte = 0x04
	fcEncapsulatedInterface byte = 0x2B
	meiReadDeviceID         byte = 0x0E
	exceptionBit            byte = 0x80
)

// Modbus capability names
const (
	CapHoldingRegisters     = "holding_registers"
	CapInputRegisters       = "input_registers"
	CapCoils                = "coils"
	CapDiscreteInputs       = "discrete_inputs"
	CapDeviceIdentification = "device_identification"
)

var (
	errTransactionMismatch = errors.New("modbus transaction id mismatch")
	errProtocolIDMismatch  = errors.New("modbus protocol id mismatch")
	errUnitMismatch        = errors.New("modbus unit id mismatch")
	errFunctionMismatch    = errors.New("modbus function code mismatch")
)

// ModbusException a well formed exception response from the device
type ModbusException struct {
	Function byte
	Code     byte
}

func (e *ModbusException) Error() string {
	return fmt.Sprintf("modbus exception 0x%02x for function 0x%02x", e.Code, e.Function)
}

// modbusRead one class of read-only request, tried at a few representative
// addresses until one succeeds
type modbusRead struct {
	capability string
	function   byte
	addresses  []uint16
}

var modbusSweep = []modbusRead{
	{CapHoldingRegisters, fcReadHoldingRegisters, []uint16{0, 1, 100}},
	{CapInputRegisters, fcReadInputRegisters, []uint16{0, 1, 100}},
	{CapCoils, fcReadCoils, []uint16{0, 1, 100}},
	{CapDiscreteInputs, fcReadDiscreteInputs, []uint16{0, 1, 100}},
}

// ModbusResult identification of a Modbus TCP endpoint
type ModbusResult struct {
	Target        Endpoint
	UnitID        uint8
	Capabilities  []string
	FunctionCodes []byte
	VendorName    string
	ProductCode   string
	Revision      string
	ProductName   string
	ModelName     string
}

// Protocol implements Identification
func (r *ModbusResult) Protocol() Protocol {
	return ProtocolModbus
}

// Endpoint implements Identification
func (r *ModbusResult) Endpoint() Endpoint {
	return r.Target
}

// HasCapability returns true if the named capability was observed
func (r *ModbusResult) HasCapability(name string) bool {
	for _, c := range r.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// Features implements Identification
func (r *ModbusResult) Features() Features {
	f := Features{
		Protocol:     ProtocolModbus,
		Port:         r.Target.Port,
		Capabilities: append([]string{}, r.Capabilities...),
		Firmware:     r.Revision,
	}

	if r.VendorName != "" {
		f.ManufacturerHint = r.VendorName
		f.ManufacturerConfidence = 0.8
	}

	f.Model = r.ModelName

	if f.Model == "" {
		f.Model = r.ProductCode
	}

	for _, s := range []string{r.VendorName, r.ProductCode, r.ProductName, r.ModelName} {
		if s != "" {
			f.Text = append(f.Text, s)
		}
	}

	return f
}

// Modbus probe for Modbus TCP. Only read requests are ever issued.
type Modbus struct {
	opts   Options
	unitID uint8
	txID   atomic.Uint32
	log    logger.Logger
}

// NewModbus returns a new Modbus probe addressing the given unit id
func NewModbus(opts Options, unitID uint8) *Modbus {
	return &Modbus{
		opts:   opts.withDefaults(),
		unitID: unitID,
		log:    logger.Named("modbus"),
	}
}

// Protocol implements Probe
func (m *Modbus) Protocol() Protocol {
	return ProtocolModbus
}

// Probe implements Probe. The first port that accepts a connection wins.
func (m *Modbus) Probe(ctx context.Context, target TargetHost) (Identification, error) {
	var lastErr error = ErrNotDetected

	for _, port := range target.Ports {
		res, err := m.probePort(ctx, target.IP, port)

		if err == nil {
			return res, nil
		}

		lastErr = err
	}

	return nil, lastErr
}

// session a connection that is re-dialed after any framing or transport
// error so a desynchronised stream never poisons later requests
type modbusSession struct {
	m    *Modbus
	ctx  context.Context
	ip   string
	port int
	conn net.Conn
}

func (s *modbusSession) request(pdu []byte) ([]byte, error) {
	if s.conn == nil {
		conn, err := s.m.opts.dial(s.ctx, s.ip, s.port)

		if err != nil {
			return nil, err
		}

		s.conn = conn
	}

	resp, err := s.m.exchange(s.conn, pdu)

	if err != nil {
		var exc *ModbusException

		if !errors.As(err, &exc) {
			s.close()
		}

		return nil, err
	}

	return resp, nil
}

func (s *modbusSession) close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (m *Modbus) probePort(ctx context.Context, ip string, port int) (*ModbusResult, error) {
	conn, err := m.opts.dial(ctx, ip, port)

	if err != nil {
		return nil, err
	}

	session := &modbusSession{m: m, ctx: ctx, ip: ip, port: port, conn: conn}
	defer session.close()

	result := &ModbusResult{
		Target: Endpoint{IP: ip, Port: port},
		UnitID: m.unitID,
	}

	answered := false

	for _, read := range modbusSweep {
		for _, addr := range read.addresses {
			if ctx.Err() != nil {
				return result, nil
			}

			_, err := session.request(readRequestPDU(read.function, addr, 1))

			if isTimeout(err) {
				// a silent host gets one handshake window, not one per request
				m.log.Debug().
					Str("ip", ip).
					Int("port", port).
					Err(err).
					Msg("modbus read timed out, ending sweep")

				if !answered {
					return nil, err
				}

				return result, nil
			}

			var exc *ModbusException

			if err == nil || errors.As(err, &exc) {
				answered = true
			}

			if err != nil {
				m.log.Debug().
					Str("ip", ip).
					Int("port", port).
					Str("capability", read.capability).
					Uint16("address", addr).
					Err(err).
					Msg("modbus read failed")
				continue
			}

			result.Capabilities = append(result.Capabilities, read.capability)
			result.FunctionCodes = append(result.FunctionCodes, read.function)

			break
		}
	}

	if ctx.Err() == nil {
		m.readDeviceIdentification(session, result)
	}

	return result, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// readDeviceIdentification opportunistic basic device identification
// (function 0x2B / MEI 0x0E). Failure leaves the result untouched.
func (m *Modbus) readDeviceIdentification(session *modbusSession, result *ModbusResult) {
	resp, err := session.request([]byte{fcEncapsulatedInterface, meiReadDeviceID, 0x01, 0x00})

	if err != nil {
		return
	}

	objects, err := parseDeviceIdentification(resp)

	if err != nil {
		return
	}

	result.VendorName = objects[0x00]
	result.ProductCode = objects[0x01]
	result.Revision = objects[0x02]
	result.ProductName = objects[0x04]
	result.ModelName = objects[0x05]

	if len(objects) > 0 {
		result.Capabilities = append(result.Capabilities, CapDeviceIdentification)
		result.FunctionCodes = append(result.FunctionCodes, fcEncapsulatedInterface)
	}
}

// exchange writes one request frame and reads back one validated response
// PDU
func (m *Modbus) exchange(conn net.Conn, pdu []byte) ([]byte, error) {
	txID := uint16(m.txID.Add(1))

	m.opts.arm(conn)

	if _, err := conn.Write(encodeMBAP(txID, m.unitID, pdu)); err != nil {
		return nil, err
	}

	header := make([]byte, mbapHeaderLen)

	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint16(header[4:6])

	if length < 2 || length > maxModbusPDU+1 {
		return nil, ErrMalformedPacket
	}

	frame := make([]byte, mbapHeaderLen+int(length)-1)
	copy(frame, header)

	if _, err := io.ReadFull(conn, frame[mbapHeaderLen:]); err != nil {
		return nil, err
	}

	return parseMBAPResponse(frame, txID, m.unitID, pdu[0])
}

func readRequestPDU(function byte, address, quantity uint16) []byte {
	pdu := make([]byte, 5)
	pdu[0] = function
	binary.BigEndian.PutUint16(pdu[1:3], address)
	binary.BigEndian.PutUint16(pdu[3:5], quantity)
	return pdu
}

func encodeMBAP(txID uint16, unitID uint8, pdu []byte) []byte {
	frame := make([]byte, mbapHeaderLen+len(pdu))
	binary.BigEndian.PutUint16(frame[0:2], txID)
	binary.BigEndian.PutUint16(frame[2:4], modbusProtocolID)
	binary.BigEndian.PutUint16(frame[4:6], uint16(len(pdu)+1))
	frame[6] = unitID
	copy(frame[mbapHeaderLen:], pdu)
	return frame
}

// parseMBAPResponse validates a complete response frame against the request
// it answers and returns the response PDU
func parseMBAPResponse(frame []byte, txID uint16, unitID uint8, function byte) ([]byte, error) {
	if len(frame) < mbapHeaderLen+1 {
		return nil, ErrMalformedPacket
	}

	if binary.BigEndian.Uint16(frame[0:2]) != txID {
		return nil, errTransactionMismatch
	}

	if binary.BigEndian.Uint16(frame[2:4]) != modbusProtocolID {
		return nil, errProtocolIDMismatch
	}

	if int(binary.BigEndian.Uint16(frame[4:6])) != len(frame)-mbapHeaderLen+1 {
		return nil, ErrMalformedPacket
	}

	if frame[6] != unitID {
		return nil, errUnitMismatch
	}

	pdu := frame[mbapHeaderLen:]

	switch pdu[0] {
	case function:
	case function | exceptionBit:
		if len(pdu) < 2 {
			return nil, ErrMalformedPacket
		}
		return nil, &ModbusException{Function: function, Code: pdu[1]}
	default:
		return nil, errFunctionMismatch
	}

	switch function {
	case fcReadCoils, fcReadDiscreteInputs, fcReadHoldingRegisters, fcReadInputRegisters:
		if len(pdu) < 3 || int(pdu[1]) != len(pdu)-2 {
			return nil, ErrMalformedPacket
		}
	}

	return pdu, nil
}

// parseDeviceIdentification decodes the object list of a read device
// identification response PDU
func parseDeviceIdentification(pdu []byte) (map[byte]string, error) {
	// function, mei, code, conformity, more follows, next id, count
	if len(pdu) < 7 || pdu[1] != meiReadDeviceID {
		return nil, ErrMalformedPacket
	}

	count := int(pdu[6])
	objects := make(map[byte]string, count)
	offset := 7

	for i := 0; i < count; i++ {
		if offset+2 > len(pdu) {
			return nil, ErrMalformedPacket
		}

		id := pdu[offset]
		size := int(pdu[offset+1])
		offset += 2

		if offset+size > len(pdu) {
			return nil, ErrMalformedPacket
		}

		objects[id] = string(pdu[offset : offset+size])
		offset += size
	}

	return objects, nil
}
