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
	"fmt"

	"github.com/holiman/uint256"
)

// Relic is a token name: a 128-bit integer rendered as a modified base-26
// string (A = 0, B = 1, ..., Z = 25, AA = 26, ...).
type Relic struct {
	N uint256.Int
}

// NewRelic constructs a Relic from a native integer name.
func NewRelic(n uint64) Relic {
	var r Relic
	r.N.SetUint64(n)
	return r
}

// ParseRelic parses a ticker consisting solely of the letters A-Z.
func ParseRelic(s string) (Relic, error) {
	if s == "" {
		return Relic{}, fmt.Errorf("empty relic name")
	}
	x := new(uint256.Int)
	for i, c := range s {
		if c < 'A' || c > 'Z' {
			return Relic{}, fmt.Errorf("invalid character in relic name: %q", c)
		}
		if i > 0 {
			x.AddUint64(x, 1)
		}
		z, ok := CheckedMul(x, uint256.NewInt(26))
		if !ok {
			return Relic{}, fmt.Errorf("relic name out of range")
		}
		x = z
		x.AddUint64(x, uint64(c-'A'))
		if !FitsU128(x) {
			return Relic{}, fmt.Errorf("relic name out of range")
		}
	}
	return Relic{N: *x}, nil
}

func (r Relic) String() string {
	n := new(uint256.Int).Set(&r.N)
	if n.Eq(MaxU128()) {
		return "BCGDENLQRQWDSLRUGSNLBTMFIJAV"
	}
	n.AddUint64(n, 1)
	var symbol []byte
	twentySix := uint256.NewInt(26)
	rem := new(uint256.Int)
	for !n.IsZero() {
		n.SubUint64(n, 1)
		n.DivMod(n, twentySix, rem)
		symbol = append(symbol, byte('A'+rem.Uint64()))
	}
	for i, j := 0, len(symbol)-1; i < j; i, j = i+1, j-1 {
		symbol[i], symbol[j] = symbol[j], symbol[i]
	}
	return string(symbol)
}

// Length returns the number of letters in the name.
func (r Relic) Length() uint32 {
	if r.N.Eq(MaxU128()) {
		return 28
	}
	n := new(uint256.Int).Set(&r.N)
	n.AddUint64(n, 1)
	twentySix := uint256.NewInt(26)
	var length uint32
	for !n.IsZero() {
		n.SubUint64(n, 1)
		n.Div(n, twentySix)
		length++
	}
	return length
}

// SealingFee returns the one-time ticker reservation fee in base token
// units, tiered by name length:
//   - 1 letter = 210,000
//   - 2 letters = 21,000
//   - 3 letters = 2,100
//   - 4-6 letters = 500
//   - 7-12 letters = 10
//   - 13+ letters = 1
func (r Relic) SealingFee() *uint256.Int {
	var x uint64
	switch length := r.Length(); {
	case length == 1:
		x = 210_000
	case length == 2:
		x = 21_000
	case length == 3:
		x = 2_100
	case length <= 6:
		x = 500
	case length <= 12:
		x = 10
	default:
		x = 1
	}
	fee := uint256.NewInt(x)
	scale := uint256.NewInt(10)
	scale.Exp(scale, uint256.NewInt(uint64(Divisibility)))
	return fee.Mul(fee, scale)
}

// FirstRelicHeight returns the protocol activation height for a network.
func FirstRelicHeight(network string) uint32 {
	switch network {
	case "mainnet":
		return 850000
	case "testnet":
		return 2800000
	default:
		return 0
	}
}
