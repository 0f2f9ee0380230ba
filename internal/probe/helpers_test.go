package probe_test

import (
	"net"
	"testing"
	"time"

	"github.com/robgonnella/plcscout/internal/probe"
	"github.com/stretchr/testify/require"
)

// serve starts a local listener handing every accepted connection to handle
func serve(t *testing.T, handle func(conn net.Conn)) (string, int) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")

	require.NoError(t, err)

	t.Cleanup(func() {
		ln.Close()
	})

	go func() {
		for {
			conn, err := ln.Accept()

			if err != nil {
				return
			}

			go func() {
				defer conn.Close()
				conn.SetDeadline(time.Now().Add(5 * time.Second))
				handle(conn)
			}()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)

	return addr.IP.String(), addr.Port
}

// closedPort returns a port that refuses connections
func closedPort(t *testing.T) int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")

	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	return port
}

func testOptions() probe.Options {
	return probe.Options{
		ConnectTimeout:   time.Second,
		HandshakeTimeout: time.Second,
	}
}
