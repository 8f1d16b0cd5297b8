// Package wire provides a fixed-capacity binary codec (PackedCodec) and
// a length-prefixed stream framing (StreamEncode/StreamDecode) for
// transmitting encoded values over a byte stream.
package wire

import (
	"encoding/asn1"
	"errors"
	"fmt"
)

// ErrTooLarge is returned when an encoded value exceeds a codec's MaxBytes.
var ErrTooLarge = errors.New("wire: encoded value exceeds codec's maximum size")

// PackedCodec encodes and decodes values of type T using the standard
// library's encoding/asn1 (a DER subset of BER), bounding every encoded
// datagram to MaxBytes = ceil(MaxBits/8).
//
// No ASN.1 PER (Packed Encoding Rules) implementation surfaced anywhere
// in the retrieved corpus; DER is the closest standard-library substitute
// and is less space-efficient than PER, but correct and dependency-free
// for the datagram sizes this scheduler's collaborators exchange.
type PackedCodec[T any] struct {
	MaxBits int
}

// NewPackedCodec constructs a PackedCodec bounding encoded datagrams to
// ceil(maxBits/8) bytes.
func NewPackedCodec[T any](maxBits int) PackedCodec[T] {
	return PackedCodec[T]{MaxBits: maxBits}
}

// MaxBytes returns ceil(MaxBits/8), the codec's maximum datagram size.
func (c PackedCodec[T]) MaxBytes() int {
	return (c.MaxBits + 7) / 8
}

// Encode marshals val as DER, failing with ErrTooLarge if the result
// would exceed MaxBytes.
func (c PackedCodec[T]) Encode(val *T) ([]byte, error) {
	out, err := asn1.Marshal(*val)
	if err != nil {
		return nil, fmt.Errorf("wire: encode: %w", err)
	}
	if len(out) > c.MaxBytes() {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(out), c.MaxBytes())
	}
	return out, nil
}

// Decode unmarshals buf (a complete DER datagram produced by Encode) into
// a T.
func (c PackedCodec[T]) Decode(buf []byte) (T, error) {
	var val T
	rest, err := asn1.Unmarshal(buf, &val)
	if err != nil {
		return val, fmt.Errorf("wire: decode: %w", err)
	}
	if len(rest) != 0 {
		return val, fmt.Errorf("wire: decode: %d trailing bytes", len(rest))
	}
	return val, nil
}
