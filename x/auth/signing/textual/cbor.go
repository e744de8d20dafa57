// Package textual implements the Textual sign-mode: a transaction is
// rendered into an ordered list of human-readable "screens" and CBOR
// encoded into a single envelope map, for consumption by hardware signers
// that can only show plain text. No CBOR library appears anywhere in the
// retrieval pack's go.mod files, so the minimal deterministic encoder
// needed for this envelope is hand-rolled rather than adapted from a pack
// file.
package textual

import (
	"encoding/binary"
	"math/big"
)

// encodeUint appends a CBOR head of the given major type with the
// minimal-length argument encoding RFC 8949 requires for canonical output.
func encodeUint(buf []byte, major byte, n uint64) []byte {
	switch {
	case n < 24:
		return append(buf, major<<5|byte(n))
	case n <= 0xff:
		return append(buf, major<<5|24, byte(n))
	case n <= 0xffff:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		return append(append(buf, major<<5|25), b...)
	case n <= 0xffffffff:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		return append(append(buf, major<<5|26), b...)
	default:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, n)
		return append(append(buf, major<<5|27), b...)
	}
}

func EncodeUint(buf []byte, n uint64) []byte { return encodeUint(buf, 0, n) }

func EncodeTextString(buf []byte, s string) []byte {
	buf = encodeUint(buf, 3, uint64(len(s)))
	return append(buf, s...)
}

func EncodeByteString(buf []byte, b []byte) []byte {
	buf = encodeUint(buf, 2, uint64(len(b)))
	return append(buf, b...)
}

func EncodeBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 0xf5)
	}
	return append(buf, 0xf4)
}

// EncodeArrayHeader appends a definite-length array head (major type 4).
func EncodeArrayHeader(buf []byte, n int) []byte { return encodeUint(buf, 4, uint64(n)) }

// EncodeMapHeader appends a definite-length map head (major type 5).
func EncodeMapHeader(buf []byte, n int) []byte { return encodeUint(buf, 5, uint64(n)) }

// EncodeBigIntString renders a big.Int as a CBOR text string of its
// base-10 digits - used for amounts, which textual rendering always shows
// as decimal text rather than a CBOR integer, to avoid any ambiguity
// about signedness or width on the signer's screen.
func EncodeBigIntString(buf []byte, v *big.Int) []byte {
	return EncodeTextString(buf, v.String())
}
