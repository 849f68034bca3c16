// Package netproto implements the distributed render wire protocol: a
// fixed 4096-byte ASCII control frame for the precision handshake, the
// parameter handshake, and row-work assignment, followed by a raw
// rowSize-byte payload for the computed row itself.
package netproto

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/AdamBromiley/rolymo/internal/plot"
)

// ControlFrameSize is the fixed width of every control-channel message:
// the precision descriptor, the parameter descriptor, and each row
// assignment.
const ControlFrameSize = 4096

// DefaultPort is the protocol's default TCP port.
const DefaultPort = 7939

func padFrame(s string) ([ControlFrameSize]byte, error) {
	var frame [ControlFrameSize]byte
	if len(s) > ControlFrameSize {
		return frame, fmt.Errorf("netproto: frame payload %d bytes exceeds %d-byte frame", len(s), ControlFrameSize)
	}
	copy(frame[:], s)
	return frame, nil
}

func unpadFrame(frame []byte) string {
	i := bytes.IndexByte(frame, 0)
	if i < 0 {
		return string(frame)
	}
	return string(frame[:i])
}

// EncodePrecisionFrame builds the first handshake message: "<mode>[
// <bits>]", NUL-padded to ControlFrameSize.
func EncodePrecisionFrame(p plot.Precision, bits uint) ([ControlFrameSize]byte, error) {
	var payload string
	if p == plot.Multi {
		payload = fmt.Sprintf("%s %d", p, bits)
	} else {
		payload = p.String()
	}
	return padFrame(payload)
}

// DecodePrecisionFrame parses the precision handshake message.
func DecodePrecisionFrame(frame []byte) (plot.Precision, uint, error) {
	payload := unpadFrame(frame)
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("netproto: empty precision frame")
	}

	p, err := plot.ParsePrecision(fields[0])
	if err != nil {
		return 0, 0, err
	}

	if p != plot.Multi {
		return p, 0, nil
	}

	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("netproto: multi-precision frame missing bit count")
	}
	bits, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("netproto: invalid bit count %q: %w", fields[1], err)
	}
	return p, uint(bits), nil
}

// EncodeRowFrame builds a row-assignment frame: the ASCII decimal row
// index, left-justified and NUL-padded within the fixed frame.
func EncodeRowFrame(row uint64) ([ControlFrameSize]byte, error) {
	return padFrame(strconv.FormatUint(row, 10))
}

// DecodeRowFrame parses a row-assignment frame.
func DecodeRowFrame(frame []byte) (uint64, error) {
	payload := unpadFrame(frame)
	if payload == "" {
		return 0, fmt.Errorf("netproto: empty row frame")
	}
	row, err := strconv.ParseUint(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("netproto: invalid row index %q: %w", payload, err)
	}
	return row, nil
}
