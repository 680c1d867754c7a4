package client

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/seed4me/radclient/pkg/radius"
)

// exchangeWire performs one UDP request/response. The read loop keeps
// a single wall-clock deadline across partial reads: once four octets
// have arrived the declared length says how much to expect.
func (c *Client) exchangeWire(request []byte) ([]byte, *Error) {
	// A host already carrying a port wins over the configured one.
	addr := c.host
	if _, _, err := net.SplitHostPort(c.host); err != nil {
		addr = net.JoinHostPort(c.host, strconv.Itoa(c.authPort))
	}
	conn, err := net.DialTimeout("udp", addr, c.timeout)
	if err != nil {
		return nil, &Error{Code: ErrCodeSend, Message: fmt.Sprintf("dialing %s: %v", addr, err)}
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return nil, &Error{Code: ErrCodeSend, Message: err.Error()}
	}
	if _, err := conn.Write(request); err != nil {
		return nil, &Error{Code: ErrCodeSend, Message: fmt.Sprintf("sending to %s: %v", addr, err)}
	}

	buf := make([]byte, 0, radius.MaxPacketLength)
	chunk := make([]byte, radius.MaxPacketLength)
	expected := -1
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, &Error{Code: ErrCodeRecv, Message: err.Error()}
		}
		n, err := conn.Read(chunk)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				return nil, &Error{Code: ErrCodeTimeout, Message: fmt.Sprintf("no response from %s within %s", addr, c.timeout)}
			}
			return nil, &Error{Code: ErrCodeRecv, Message: fmt.Sprintf("receiving from %s: %v", addr, err)}
		}
		buf = append(buf, chunk[:n]...)

		if expected < 0 && len(buf) >= 4 {
			expected = int(binary.BigEndian.Uint16(buf[2:4]))
			if expected < radius.HeaderLength || expected > radius.MaxPacketLength {
				return nil, &Error{Code: ErrCodeInvalidResponse, Message: fmt.Sprintf("declared response length %d out of range", expected)}
			}
		}
		if expected >= 0 && len(buf) >= expected {
			return buf[:expected], nil
		}
	}
}
