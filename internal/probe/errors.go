package probe

import "errors"

// ErrNotDetected the host answered but did not identify as the protocol
var ErrNotDetected = errors.New("protocol not detected")

// ErrMalformedPacket a response could not be framed
var ErrMalformedPacket = errors.New("malformed packet")

// ErrMalformedVarint an MQTT variable byte integer used more than 4 bytes
var ErrMalformedVarint = errors.New("malformed variable byte integer")

// ErrVarintRange value cannot be represented as an MQTT variable byte integer
var ErrVarintRange = errors.New("value out of variable byte integer range")
