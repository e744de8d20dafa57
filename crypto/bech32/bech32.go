// Package bech32 implements the Bech32 encoding (BIP-0173 checksum/charset)
// used to render addresses and public keys as human-readable strings with a
// per-network/per-purpose prefix. No bech32 library appears anywhere in the
// retrieval pack, so this is a direct, from-scratch implementation rather
// than an adaptation of existing pack code.
package bech32

import (
	"fmt"
	"strings"

	sdkerrors "github.com/chainkit/corechain/types/errors"
)

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var charsetRev = func() [128]int8 {
	var rev [128]int8
	for i := range rev {
		rev[i] = -1
	}
	for i, c := range charset {
		rev[c] = int8(i)
	}
	return rev
}()

const maxLength = 90

// Encode renders data (already 5-bit grouped, as produced by ConvertBits)
// under hrp, appending the checksum.
func Encode(hrp string, data []byte) (string, error) {
	if len(hrp) < 1 {
		return "", fmt.Errorf("hrp must be non-empty")
	}
	for _, c := range hrp {
		if c < 33 || c > 126 {
			return "", fmt.Errorf("hrp character out of range: %q", c)
		}
	}
	lower := strings.ToLower(hrp)
	if lower != hrp && strings.ToUpper(hrp) != hrp {
		return "", fmt.Errorf("hrp must not mix case")
	}
	hrp = lower

	checksum := createChecksum(hrp, data)
	combined := append(append([]byte{}, data...), checksum...)

	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, b := range combined {
		sb.WriteByte(charset[b])
	}
	out := sb.String()
	if len(out) > maxLength {
		return "", fmt.Errorf("encoded string exceeds max length %d", maxLength)
	}
	return out, nil
}

// Decode splits bech, verifies its checksum, and returns (hrp, 5-bit data).
func Decode(bech string) (hrp string, data []byte, err error) {
	if len(bech) < 8 || len(bech) > maxLength {
		return "", nil, fmt.Errorf("invalid bech32 string length %d", len(bech))
	}
	lower := strings.ToLower(bech)
	upper := strings.ToUpper(bech)
	if bech != lower && bech != upper {
		return "", nil, fmt.Errorf("bech32 string must not mix case")
	}
	bech = lower

	sep := strings.LastIndexByte(bech, '1')
	if sep < 1 || sep+7 > len(bech) {
		return "", nil, fmt.Errorf("invalid separator position in %q", bech)
	}
	hrp = bech[:sep]
	dataPart := bech[sep+1:]

	data = make([]byte, len(dataPart))
	for i, c := range dataPart {
		if c >= 128 || charsetRev[c] == -1 {
			return "", nil, fmt.Errorf("invalid character %q in data part", c)
		}
		data[i] = byte(charsetRev[c])
	}
	if !verifyChecksum(hrp, data) {
		return "", nil, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "bech32 checksum mismatch")
	}
	return hrp, data[:len(data)-6], nil
}

func polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func hrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, byte(c)>>5)
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, byte(c)&31)
	}
	return out
}

func createChecksum(hrp string, data []byte) []byte {
	values := append(hrpExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := polymod(values) ^ 1
	checksum := make([]byte, 6)
	for i := 0; i < 6; i++ {
		checksum[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return checksum
}

func verifyChecksum(hrp string, data []byte) bool {
	return polymod(append(hrpExpand(hrp), data...)) == 1
}

// ConvertBits regroups a byte slice between bit widths (8->5 for encoding,
// 5->8 for decoding), as required by the bech32 data-part encoding.
func ConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	out := make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)
	maxv := uint32(1<<toBits) - 1
	maxAcc := uint32(1<<(fromBits+toBits-1)) - 1

	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, fmt.Errorf("invalid data range for %d-bit word: %d", fromBits, b)
		}
		acc = ((acc << fromBits) | uint32(b)) & maxAcc
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, fmt.Errorf("invalid padding in bech32 data")
	}
	return out, nil
}

// EncodeFromBytes converts raw bytes to the 5-bit alphabet and bech32-encodes
// them under hrp - the convenience path address/key encoding uses.
func EncodeFromBytes(hrp string, raw []byte) (string, error) {
	data, err := ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return Encode(hrp, data)
}

// DecodeToBytes is the inverse of EncodeFromBytes.
func DecodeToBytes(bech string) (hrp string, raw []byte, err error) {
	hrp, data, err := Decode(bech)
	if err != nil {
		return "", nil, err
	}
	raw, err = ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return hrp, raw, nil
}
