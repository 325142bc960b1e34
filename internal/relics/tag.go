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
	"unicode/utf8"

	"github.com/holiman/uint256"
)

// Even tags form the stable schema; unrecognized even tags invalidate the
// message. Odd tags are experimental and ignored when unrecognized.
type tag uint64

const (
	tagBody    tag = 0
	tagFlags   tag = 2
	tagPointer tag = 4
	tagClaim   tag = 6

	// enshrining
	tagSeed          tag = 8
	tagAmount        tag = 10
	tagCap           tag = 12
	tagPrice         tag = 14
	tagPriceFormulaA tag = 16
	tagPriceFormulaB tag = 18
	tagMaxUnmints    tag = 24
	tagBlockCap      tag = 26
	tagTxCap         tag = 28
	tagFee           tag = 30

	// boosts
	tagRareChance             tag = 32
	tagRareMultiplierCap      tag = 34
	tagUltraRareChance        tag = 36
	tagUltraRareMultiplierCap tag = 38

	// mints
	tagMultiMintCount     tag = 80
	tagMultiMintBaseLimit tag = 82
	tagMultiMintRelic     tag = 84
	tagMultiMintIsUnmint  tag = 86

	// swaps
	tagSwapInput        tag = 90
	tagSwapOutput       tag = 92
	tagSwapInputAmount  tag = 94
	tagSwapOutputAmount tag = 96

	tagSubsidy  tag = 98
	tagCenotaph tag = 126

	tagSymbol tag = 5
	tagNop    tag = 127
)

// fieldMap holds undrained tag values in FIFO order. Keys are the raw u128
// tags so that unrecognized tags survive to the final even-tag check.
type fieldMap map[uint256.Int][]uint256.Int

func (f fieldMap) push(key uint256.Int, value uint256.Int) {
	f[key] = append(f[key], value)
}

func (f fieldMap) hasEvenTag() bool {
	for key := range f {
		if key[0]&1 == 0 {
			return true
		}
	}
	return false
}

func (t tag) key() uint256.Int {
	return *uint256.NewInt(uint64(t))
}

// take drains the first count values of the tag, but only if accept
// approves of them; otherwise the values stay in the map.
func (t tag) take(fields fieldMap, count int, accept func([]uint256.Int) bool) bool {
	key := t.key()
	values := fields[key]
	if len(values) < count {
		return false
	}
	if !accept(values[:count]) {
		return false
	}
	rest := values[count:]
	if len(rest) == 0 {
		delete(fields, key)
	} else {
		fields[key] = rest
	}
	return true
}

func (t tag) takeValue(fields fieldMap) (*uint256.Int, bool) {
	var out *uint256.Int
	ok := t.take(fields, 1, func(values []uint256.Int) bool {
		out = new(uint256.Int).Set(&values[0])
		return true
	})
	return out, ok
}

func (t tag) takeNonZero(fields fieldMap) (*uint256.Int, bool) {
	var out *uint256.Int
	ok := t.take(fields, 1, func(values []uint256.Int) bool {
		if values[0].IsZero() {
			return false
		}
		out = new(uint256.Int).Set(&values[0])
		return true
	})
	return out, ok
}

func (t tag) takeUint32(fields fieldMap) (uint32, bool) {
	var out uint32
	ok := t.take(fields, 1, func(values []uint256.Int) bool {
		if !values[0].IsUint64() || values[0].Uint64() > uint64(^uint32(0)) {
			return false
		}
		out = uint32(values[0].Uint64())
		return true
	})
	return out, ok
}

func (t tag) takeUint16(fields fieldMap) (uint16, bool) {
	var out uint16
	ok := t.take(fields, 1, func(values []uint256.Int) bool {
		if !values[0].IsUint64() || values[0].Uint64() > uint64(^uint16(0)) {
			return false
		}
		out = uint16(values[0].Uint64())
		return true
	})
	return out, ok
}

func (t tag) takeUint8(fields fieldMap) (uint8, bool) {
	var out uint8
	ok := t.take(fields, 1, func(values []uint256.Int) bool {
		if !values[0].IsUint64() || values[0].Uint64() > uint64(^uint8(0)) {
			return false
		}
		out = uint8(values[0].Uint64())
		return true
	})
	return out, ok
}

func (t tag) takeChar(fields fieldMap) (rune, bool) {
	var out rune
	ok := t.take(fields, 1, func(values []uint256.Int) bool {
		if !values[0].IsUint64() || values[0].Uint64() > utf8.MaxRune {
			return false
		}
		r := rune(values[0].Uint64())
		if !utf8.ValidRune(r) {
			return false
		}
		out = r
		return true
	})
	return out, ok
}

func (t tag) takeRelicID(fields fieldMap) (RelicID, bool) {
	var out RelicID
	ok := t.take(fields, 2, func(values []uint256.Int) bool {
		if !values[0].IsUint64() {
			return false
		}
		if !values[1].IsUint64() || values[1].Uint64() > uint64(^uint32(0)) {
			return false
		}
		id, valid := NewRelicID(values[0].Uint64(), uint32(values[1].Uint64()))
		if !valid {
			return false
		}
		out = id
		return true
	})
	return out, ok
}

// encode appends tag-value pairs to the payload.
func (t tag) encode(payload []byte, values ...*uint256.Int) []byte {
	for _, value := range values {
		payload = EncodeVarintUint64(uint64(t), payload)
		payload = EncodeVarint(value, payload)
	}
	return payload
}

func (t tag) encodeUint64(payload []byte, value uint64) []byte {
	payload = EncodeVarintUint64(uint64(t), payload)
	return EncodeVarintUint64(value, payload)
}
