package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrDatagramTooLarge is returned by StreamEncode when a datagram's
// length does not fit in the 16-bit length prefix.
var ErrDatagramTooLarge = errors.New("wire: datagram exceeds 65535 bytes, cannot be length-prefixed")

// StreamEncode writes datagram to w as a two-byte little-endian length
// prefix followed by the datagram bytes.
//
// The length's high byte is written as byte(n >> 8) — the standard 8-bit
// shift. An earlier revision of this framing instead wrote byte(n >> 1),
// corrupting every length above 255 bytes; that bug is not reproduced
// here. The byte order itself — low byte first — is unchanged.
func StreamEncode(w io.Writer, datagram []byte) error {
	if len(datagram) > 0xffff {
		return fmt.Errorf("%w (%d bytes)", ErrDatagramTooLarge, len(datagram))
	}

	var prefix [2]byte
	binary.LittleEndian.PutUint16(prefix[:], uint16(len(datagram)))

	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}
	if _, err := w.Write(datagram); err != nil {
		return fmt.Errorf("wire: write datagram: %w", err)
	}
	return nil
}

// StreamDecode reads a two-byte little-endian length prefix from r
// followed by that many bytes, returning the datagram.
func StreamDecode(r io.Reader) ([]byte, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("wire: read length prefix: %w", err)
	}

	n := binary.LittleEndian.Uint16(prefix[:])
	datagram := make([]byte, n)
	if _, err := io.ReadFull(r, datagram); err != nil {
		return nil, fmt.Errorf("wire: read datagram: %w", err)
	}
	return datagram, nil
}
