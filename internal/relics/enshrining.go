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

	"github.com/holiman/uint256"
)

const (
	// Divisibility is the shared display divisibility of all tokens.
	Divisibility = 8

	// MaxSpacers bounds the spacer bitmask of a 28-letter name.
	MaxSpacers uint32 = 0b00000111_11111111_11111111_11111111

	// MaxBoostChance is the upper bound of boost chances, in ppm.
	MaxBoostChance uint32 = 999_999
)

// PriceModel sets the per-mint price: either a fixed amount or the
// exponential curve price(x) = floor(a * e^(x/b)) over the mint index x.
type PriceModel struct {
	Fixed *uint256.Int
	A     *uint256.Int
	B     *uint256.Int
}

// FixedPrice builds a fixed price model.
func FixedPrice(p *uint256.Int) *PriceModel {
	return &PriceModel{Fixed: new(uint256.Int).Set(p)}
}

// FormulaPrice builds an exponential price model.
func FormulaPrice(a, b *uint256.Int) *PriceModel {
	return &PriceModel{A: new(uint256.Int).Set(a), B: new(uint256.Int).Set(b)}
}

// IsFixed reports whether the model is a fixed price.
func (p *PriceModel) IsFixed() bool {
	return p.Fixed != nil
}

// ComputePrice returns the price of mint index x, or false if the curve
// exceeds the 128-bit range at x.
func (p *PriceModel) ComputePrice(x *uint256.Int) (*uint256.Int, bool) {
	if p.Fixed != nil {
		return new(uint256.Int).Set(p.Fixed), true
	}
	a := u128ToFloat(p.A)
	b := u128ToFloat(p.B)
	if a <= 0 || b <= 0 {
		return nil, false
	}
	r := u128ToFloat(x) / b
	if r > math.Log(u128ToFloat(MaxU128())/a) {
		return nil, false
	}
	return u128FromFloat(a * math.Exp(r))
}

// ComputeTotalPrice returns the total price of count mints starting at
// mint index start, or false on overflow.
func (p *PriceModel) ComputeTotalPrice(start *uint256.Int, count uint8) (*uint256.Int, bool) {
	if p.Fixed != nil {
		return CheckedMul(p.Fixed, uint256.NewInt(uint64(count)))
	}
	total := new(uint256.Int)
	x := new(uint256.Int).Set(start)
	for i := uint8(0); i < count; i++ {
		price, ok := p.ComputePrice(x)
		if !ok {
			return nil, false
		}
		if total, ok = CheckedAdd(total, price); !ok {
			return nil, false
		}
		x.AddUint64(x, 1)
	}
	return total, true
}

// maxFormulaIndex returns the largest mint index at which the curve still
// fits in 128 bits, i.e. floor(b * ln(maxU128 / a)).
func (p *PriceModel) maxFormulaIndex() *uint256.Int {
	a := u128ToFloat(p.A)
	b := u128ToFloat(p.B)
	limit, ok := u128FromFloat(b * math.Log(u128ToFloat(MaxU128())/a))
	if !ok {
		return MaxU128()
	}
	return limit
}

// MintTerms allows minting of tokens until the cap is reached. After the
// final mint the liquidity pool opens with the base tokens collected during
// minting against the seed supply. If the token never mints out, no pool is
// created and the collected base tokens stay locked.
type MintTerms struct {
	// amount of quote tokens per mint
	Amount *uint256.Int
	// maximum number of mints allowed in one block
	BlockCap *uint32
	// maximum number of mints; a soft cap when mints are boosted
	Cap *uint256.Int
	// if set, tokens can be unminted until MaxUnmints is reached
	MaxUnmints *uint32
	// must be set, except for the base token, which has no price
	Price *PriceModel
	// initial quote supply of the liquidity pool, typically amount*cap
	Seed *uint256.Int
	// maximum number of mints allowed in one transaction
	TxCap *uint8
}

// ComputePrice returns the price of mint index x under these terms.
func (t *MintTerms) ComputePrice(x *uint256.Int) (*uint256.Int, bool) {
	if t.Price == nil {
		return nil, false
	}
	return t.Price.ComputePrice(x)
}

// ComputeTotalPrice returns the total price of count mints starting at x.
func (t *MintTerms) ComputeTotalPrice(start *uint256.Int, count uint8) (*uint256.Int, bool) {
	if t.Price == nil {
		return nil, false
	}
	return t.Price.ComputeTotalPrice(start, count)
}

func (t *MintTerms) validate() Flaw {
	if t.Cap == nil || t.Cap.IsZero() {
		return FlawEnshriningMissingOrZeroCap
	}
	if t.Amount != nil {
		if _, ok := CheckedMul(t.Cap, t.Amount); !ok {
			return FlawEnshriningAmountCapOverflow
		}
	}
	switch {
	case t.Price == nil:
		return FlawEnshriningMissingPrice
	case t.Price.IsFixed():
		if _, ok := CheckedMul(t.Cap, t.Price.Fixed); !ok {
			return FlawEnshriningFixedPriceCapOverflow
		}
	default:
		if t.Price.A == nil || t.Price.A.IsZero() ||
			t.Price.B == nil || t.Price.B.IsZero() ||
			t.Cap.Gt(t.Price.maxFormulaIndex()) {
			return FlawEnshriningInvalidPriceFormula
		}
	}
	if t.BlockCap != nil {
		if t.Cap.Lt(uint256.NewInt(uint64(*t.BlockCap))) {
			return FlawEnshriningInvalidCapHierarchy
		}
		if t.TxCap != nil && *t.BlockCap < uint32(*t.TxCap) {
			return FlawEnshriningInvalidCapHierarchy
		}
	}
	return FlawNone
}

// BoostTerms give minters a chance at multiplied mint amounts.
type BoostTerms struct {
	// chance of a rare mint, in ppm
	RareChance *uint32
	// e.g. 10 -> a rare mint yields between 1x and 10x the amount
	RareMultiplierCap *uint16
	// chance of an ultra rare mint, in ppm
	UltraRareChance *uint32
	// e.g. 20 with rare cap 10 -> between 10x and 20x the amount
	UltraRareMultiplierCap *uint16
}

func (b *BoostTerms) validate(amount *uint256.Int) Flaw {
	if b.RareChance == nil || b.RareMultiplierCap == nil {
		return FlawEnshriningBoostInvalidRareBoost
	}
	if b.UltraRareChance == nil || b.UltraRareMultiplierCap == nil {
		return FlawEnshriningBoostInvalidUltraRareBoost
	}
	if *b.RareChance > MaxBoostChance {
		return FlawEnshriningBoostInvalidRareChance
	}
	if *b.UltraRareChance > MaxBoostChance {
		return FlawEnshriningBoostInvalidUltraRareChance
	}
	if *b.UltraRareChance >= *b.RareChance {
		return FlawEnshriningBoostChanceOrder
	}
	if *b.UltraRareMultiplierCap <= *b.RareMultiplierCap {
		return FlawEnshriningBoostMultiplierOrder
	}
	if amount != nil {
		if _, ok := CheckedMul(amount, uint256.NewInt(uint64(*b.RareMultiplierCap))); !ok {
			return FlawEnshriningBoostRareAmountOverflow
		}
		if _, ok := CheckedMul(amount, uint256.NewInt(uint64(*b.UltraRareMultiplierCap))); !ok {
			return FlawEnshriningBoostUltraRareAmountOverflow
		}
	}
	return FlawNone
}

// MultiMint mints (or unmints) a token one or more times in a single
// transaction.
type MultiMint struct {
	// number of mints to perform, always positive
	Count uint8
	// when minting, the maximum base tokens to spend; when unminting,
	// the minimum base tokens to receive
	BaseLimit *uint256.Int
	// true to revert mints instead of performing them
	IsUnmint bool
	// the token to mint or unmint
	Relic RelicID
}

// Enshrining creates a token for a previously sealed ticker.
type Enshrining struct {
	// potential mint boosts
	BoostTerms *BoostTerms
	// trading fee in bps (10_000 = 100%)
	Fee *uint16
	// for free tokens only: creator-sponsored base token liquidity
	Subsidy *uint256.Int
	// symbol attached to this token
	Symbol *rune
	// mint parameters
	MintTerms *MintTerms
}

// MaxSupply returns the highest possible supply: seed plus cap times amount
// times the largest boost multiplier. False on overflow.
func (e *Enshrining) MaxSupply() (*uint256.Int, bool) {
	amount := new(uint256.Int)
	cap := new(uint256.Int)
	seed := new(uint256.Int)
	if e.MintTerms != nil {
		if e.MintTerms.Amount != nil {
			amount.Set(e.MintTerms.Amount)
		}
		if e.MintTerms.Cap != nil {
			cap.Set(e.MintTerms.Cap)
		}
		if e.MintTerms.Seed != nil {
			seed.Set(e.MintTerms.Seed)
		}
	}
	maxBoost := uint64(1)
	if e.BoostTerms != nil {
		switch {
		case e.BoostTerms.UltraRareMultiplierCap != nil:
			maxBoost = uint64(*e.BoostTerms.UltraRareMultiplierCap)
		case e.BoostTerms.RareMultiplierCap != nil:
			maxBoost = uint64(*e.BoostTerms.RareMultiplierCap)
		}
	}
	minted, ok := CheckedMul(cap, amount)
	if !ok {
		return nil, false
	}
	if minted, ok = CheckedMul(minted, uint256.NewInt(maxBoost)); !ok {
		return nil, false
	}
	return CheckedAdd(seed, minted)
}

// Validate checks the issuance parameters and returns the first flaw found.
func (e *Enshrining) Validate() Flaw {
	if e.MintTerms == nil {
		return FlawEnshriningMissingOrZeroCap
	}
	if flaw := e.MintTerms.validate(); flaw != FlawNone {
		return flaw
	}
	if e.BoostTerms != nil {
		if flaw := e.BoostTerms.validate(e.MintTerms.Amount); flaw != FlawNone {
			return flaw
		}
		if e.MintTerms.MaxUnmints != nil && *e.MintTerms.MaxUnmints > 0 {
			return FlawEnshriningBoostUnmintsForbidden
		}
	}
	if _, ok := e.MaxSupply(); !ok {
		return FlawEnshriningMaxSupplyCalculation
	}
	// a subsidy requires a zero fixed price and vice versa
	price := e.MintTerms.Price
	switch {
	case e.Subsidy != nil && price != nil && price.IsFixed():
		if e.Subsidy.IsZero() || !price.Fixed.IsZero() {
			return FlawEnshriningSubsidyRules
		}
	case e.Subsidy != nil:
		return FlawEnshriningSubsidyRules
	case price != nil && price.IsFixed() && price.Fixed.IsZero():
		return FlawEnshriningSubsidyRules
	}
	return FlawNone
}
