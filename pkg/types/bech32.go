package types

import (
	"errors"
	"fmt"
	"strings"
)

// BIP-173 encoding alphabet for the 5-bit data part.
const bech32Alphabet = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

const checksumLen = 6

var errBadChecksum = errors.New("bech32: invalid checksum")

// bech32Lookup maps an ASCII byte to its 5-bit value, -1 for non-alphabet.
var bech32Lookup [128]int8

func init() {
	for i := range bech32Lookup {
		bech32Lookup[i] = -1
	}
	for i, c := range bech32Alphabet {
		bech32Lookup[c] = int8(i)
	}
}

// Bech32Encode encodes data under the given human-readable part.
func Bech32Encode(hrp string, data []byte) (string, error) {
	if hrp == "" {
		return "", fmt.Errorf("bech32: empty HRP")
	}
	for _, c := range hrp {
		if c < 33 || c > 126 {
			return "", fmt.Errorf("bech32: invalid HRP character %q", c)
		}
	}

	groups, err := regroupBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("bech32: regroup bits: %w", err)
	}

	var sb strings.Builder
	sb.Grow(len(hrp) + 1 + len(groups) + checksumLen)
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, g := range append(groups, checksum(hrp, groups)...) {
		sb.WriteByte(bech32Alphabet[g])
	}
	return sb.String(), nil
}

// Bech32Decode splits and verifies a bech32 string, returning the
// human-readable part and the decoded data bytes.
func Bech32Decode(s string) (string, []byte, error) {
	if s == "" {
		return "", nil, fmt.Errorf("bech32: empty string")
	}
	if strings.ToLower(s) != s && strings.ToUpper(s) != s {
		return "", nil, fmt.Errorf("bech32: mixed case")
	}
	s = strings.ToLower(s)

	sep := strings.LastIndexByte(s, '1')
	if sep < 1 {
		return "", nil, fmt.Errorf("bech32: missing separator")
	}
	if len(s)-sep-1 < checksumLen {
		return "", nil, fmt.Errorf("bech32: too short")
	}
	hrp, body := s[:sep], s[sep+1:]

	groups := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c > 127 || bech32Lookup[c] < 0 {
			return "", nil, fmt.Errorf("bech32: invalid character %q", c)
		}
		groups[i] = byte(bech32Lookup[c])
	}

	if polymod(append(hrpExpand(hrp), groups...)) != 1 {
		return "", nil, errBadChecksum
	}

	data, err := regroupBits(groups[:len(groups)-checksumLen], 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: regroup bits: %w", err)
	}
	return hrp, data, nil
}

// polymod is the BCH checksum polynomial from BIP-173.
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

// hrpExpand feeds the HRP into the checksum: high bits, a zero, low bits.
func hrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, byte(c>>5))
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, byte(c&31))
	}
	return out
}

// checksum computes the 6-group checksum for hrp + data.
func checksum(hrp string, data []byte) []byte {
	values := append(hrpExpand(hrp), data...)
	values = append(values, make([]byte, checksumLen)...)
	pm := polymod(values) ^ 1
	out := make([]byte, checksumLen)
	for i := range out {
		out[i] = byte((pm >> uint(5*(5-i))) & 31)
	}
	return out
}

// regroupBits repacks data from fromBits-sized groups into toBits-sized
// groups. With pad set, a trailing partial group is zero-filled; without it,
// any non-zero padding is rejected.
func regroupBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var (
		acc  uint32
		bits uint
		out  []byte
	)
	maxv := uint32(1)<<toBits - 1

	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, fmt.Errorf("invalid data byte: %d", b)
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits)&byte(maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(toBits-bits))&byte(maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, fmt.Errorf("non-zero padding")
	}
	return out, nil
}
