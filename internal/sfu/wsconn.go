/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"fmt"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// wsConn is a thin text-frame codec over a net.Conn that has already
// been upgraded by hand (see dispatcher.go's hijackAndRespond). It
// intentionally does not perform any handshake of its own: gobwas/ws is
// the one framing library in the retrieved pack designed to run after an
// upgrade rather than own it.
type wsConn struct {
	conn net.Conn
}

func newWSConn(conn net.Conn) *wsConn {
	return &wsConn{conn: conn}
}

// writeText sends a single text frame. Session loops use one goroutine
// per connection for writes, so no additional locking is needed here;
// concurrent writers on the same net.Conn would otherwise interleave
// frame bytes.
func (c *wsConn) writeText(p []byte) error {
	return wsutil.WriteServerMessage(c.conn, ws.OpText, p)
}

// readMessage reads the next client data frame, returning its opcode and
// payload. wsutil.ReadClientData answers Ping frames and surfaces Close
// frames as an io.EOF-flavored error, consistent with the "close frames
// terminate the session" requirement.
func (c *wsConn) readMessage() ([]byte, ws.OpCode, error) {
	data, op, err := wsutil.ReadClientData(c.conn)
	if err != nil {
		return nil, 0, fmt.Errorf("sfu: read client frame: %w", err)
	}
	return data, op, nil
}

func (c *wsConn) close() error {
	return c.conn.Close()
}
