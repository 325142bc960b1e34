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
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

// All protocol amounts are unsigned 128-bit integers. They are carried in
// uint256.Int values whose upper half must stay zero; every arithmetic
// helper below reports overflow past 128 bits.

// MaxU128 is the largest representable protocol amount, 2^128 - 1.
func MaxU128() *uint256.Int {
	z := new(uint256.Int)
	z.Lsh(uint256.NewInt(1), 128)
	return z.SubUint64(z, 1)
}

// FitsU128 reports whether z is a valid protocol amount.
func FitsU128(z *uint256.Int) bool {
	return z.BitLen() <= 128
}

// CheckedAdd returns x + y, reporting whether the sum fits in 128 bits.
func CheckedAdd(x, y *uint256.Int) (*uint256.Int, bool) {
	z := new(uint256.Int).Add(x, y)
	return z, FitsU128(z)
}

// CheckedSub returns x - y, reporting whether the subtraction did not
// underflow.
func CheckedSub(x, y *uint256.Int) (*uint256.Int, bool) {
	if x.Lt(y) {
		return nil, false
	}
	return new(uint256.Int).Sub(x, y), true
}

// CheckedMul returns x * y, reporting whether the product fits in 128 bits.
func CheckedMul(x, y *uint256.Int) (*uint256.Int, bool) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	return z, !overflow && FitsU128(z)
}

// SaturatingAdd returns x + y, clamped at 2^128 - 1.
func SaturatingAdd(x, y *uint256.Int) *uint256.Int {
	z, ok := CheckedAdd(x, y)
	if !ok {
		return MaxU128()
	}
	return z
}

// SaturatingSub returns x - y, clamped at zero.
func SaturatingSub(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(x, y)
}

func ceilDiv(x, y *uint256.Int) *uint256.Int {
	q := new(uint256.Int)
	r := new(uint256.Int)
	q.DivMod(x, y, r)
	if !r.IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

func u128ToFloat(z *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(z.ToBig()).Float64()
	return f
}

// u128FromFloat converts a non-negative float to its floor as a u128,
// reporting failure on NaN, infinity, negative input, or overflow.
func u128FromFloat(v float64) (*uint256.Int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, false
	}
	bi, _ := big.NewFloat(math.Floor(v)).Int(nil)
	z, overflow := uint256.FromBig(bi)
	if overflow || !FitsU128(z) {
		return nil, false
	}
	return z, true
}
