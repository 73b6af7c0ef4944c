package websocket

import "time"

// This file implements the message reassembler described in spec.md §4.2:
// it joins data-frame fragments into whole messages while letting control
// frames (Ping/Pong/Close) interleave between — or even between the
// fragments of — a message without disturbing the assembly buffer. That
// interleaving is the "principal subtlety" the design calls out, and it is
// why both NextReader (looking for the first frame of a message) and
// messageReader.Read (looking for the next continuation frame of a message
// already in progress) route through nextAssemblyFrame rather than calling
// c.readFrame directly: a Ping arriving mid-fragment must still get an
// immediate Pong without aborting the message in flight.

// nextAssemblyFrame reads frames from the connection, answering Ping and
// Pong inline and surfacing Close as a terminal error, until it finds a
// frame that belongs to message assembly (a data frame or a continuation
// frame). This is the Idle/Assembling control-frame-passthrough behavior
// from spec.md §4.2.
func (c *Conn) nextAssemblyFrame() (frameType int, payload []byte, final, compressed bool, err error) {
	for {
		frameType, payload, final, compressed, err = c.readFrame()
		if err != nil {
			return 0, nil, false, false, err
		}
		c.lastActivity.Store(time.Now().UnixNano())

		switch frameType {
		case PingMessage:
			if err := c.pingHandler(string(payload)); err != nil {
				return 0, nil, false, false, err
			}
		case PongMessage:
			c.signalPong()
			if err := c.pongHandler(string(payload)); err != nil {
				return 0, nil, false, false, err
			}
		case CloseMessage:
			code := CloseNoStatusReceived
			text := ""
			if len(payload) >= 2 {
				code = int(payload[0])<<8 | int(payload[1])
				text = string(payload[2:])
			}
			c.setState(StateClosing)
			if err := c.closeHandler(code, text); err != nil {
				c.setState(StateClosed)
				return 0, nil, false, false, err
			}
			c.setState(StateClosed)
			return 0, nil, false, false, &CloseError{Code: code, Text: text}
		case continuationFrame, TextMessage, BinaryMessage:
			// RSV1 marks only the first frame of a compressed message.
			if frameType == continuationFrame && compressed {
				return 0, nil, false, false, ErrReservedBits
			}
			return frameType, payload, final, compressed, nil
		default:
			return 0, nil, false, false, ErrInvalidOpcode
		}
	}
}
