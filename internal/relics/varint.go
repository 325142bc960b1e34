// Copyright 2025 Relics Protocol
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relics

import (
	"errors"

	"github.com/holiman/uint256"
)

// The on-chain integer encoding is an unsigned LEB128 variant limited to
// 128-bit values: 7 data bits per byte, least-significant group first, high
// bit set on every byte except the last.
var (
	ErrVarintOverlong     = errors.New("varint over maximum length")
	ErrVarintOverflow     = errors.New("varint overflows u128")
	ErrVarintUnterminated = errors.New("varint must be terminated")
)

// DecodeVarint decodes a single u128 varint from the start of buf and
// returns the value and the number of bytes consumed.
func DecodeVarint(buf []byte) (*uint256.Int, int, error) {
	n := new(uint256.Int)
	for i, b := range buf {
		if i > 18 {
			return nil, 0, ErrVarintOverlong
		}
		value := uint64(b & 0x7f)
		if i == 18 && value&0x7c != 0 {
			return nil, 0, ErrVarintOverflow
		}
		chunk := uint256.NewInt(value)
		chunk.Lsh(chunk, uint(7*i))
		n.Or(n, chunk)
		if b&0x80 == 0 {
			return n, i + 1, nil
		}
	}
	return nil, 0, ErrVarintUnterminated
}

// EncodeVarint appends the canonical (shortest) varint encoding of n to buf.
func EncodeVarint(n *uint256.Int, buf []byte) []byte {
	v := new(uint256.Int).Set(n)
	for v.BitLen() > 7 {
		buf = append(buf, byte(v.Uint64()&0x7f)|0x80)
		v.Rsh(v, 7)
	}
	return append(buf, byte(v.Uint64()))
}

// EncodeVarintUint64 appends the varint encoding of a native integer.
func EncodeVarintUint64(n uint64, buf []byte) []byte {
	for n>>7 > 0 {
		buf = append(buf, byte(n&0x7f)|0x80)
		n >>= 7
	}
	return append(buf, byte(n))
}
