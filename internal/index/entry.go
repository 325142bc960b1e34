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

package index

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

// RelicOwner is the hash of the script owning a token's sealing
// inscription. Trading fees accrue to it.
type RelicOwner [20]byte

// OwnerFromScript derives the owner key from a locking script.
func OwnerFromScript(script []byte) RelicOwner {
	var owner RelicOwner
	copy(owner[:], btcutil.Hash160(script))
	return owner
}

// RelicState is the mutable counter state of a token.
type RelicState struct {
	Burned  *uint256.Int
	Mints   *uint256.Int
	Unmints *uint256.Int
}

func newRelicState() RelicState {
	return RelicState{
		Burned:  new(uint256.Int),
		Mints:   new(uint256.Int),
		Unmints: new(uint256.Int),
	}
}

// MintLot is one mint slot: the quote amount created and the base price
// paid (or refunded, for unmints).
type MintLot struct {
	Amount *uint256.Int
	Price  *uint256.Int
}

// RelicEntry is the persisted state of one token.
type RelicEntry struct {
	Block         uint64
	Enshrining    chainhash.Hash
	Fee           uint16
	Number        uint64
	SpacedRelic   relics.SpacedRelic
	Symbol        *rune
	OwnerSequence *uint32
	BoostTerms    *relics.BoostTerms
	MintTerms     *relics.MintTerms
	State         RelicState
	Pool          *relics.Pool
	Timestamp     uint64
}

// NewRelicEntry returns an entry with the default 1% trading fee and zeroed
// state.
func NewRelicEntry() *RelicEntry {
	return &RelicEntry{
		Fee:   100,
		State: newRelicState(),
	}
}

// Mintable determines the mint slots a request may fill given the current
// state, the caller's base balance, and the caller's base spending limit.
func (e *RelicEntry) Mintable(baseBalance *uint256.Int, numMints uint8, baseLimit *uint256.Int) ([]MintLot, *RelicError) {
	terms := e.MintTerms
	if terms == nil {
		return nil, relicErr(ErrUnmintable)
	}
	if e.IsFree() && numMints > 1 {
		return nil, &RelicError{Kind: ErrMaxMintPerTxExceeded, Count: 1}
	}
	if terms.TxCap != nil && numMints > *terms.TxCap {
		return nil, &RelicError{Kind: ErrMaxMintPerTxExceeded, Count: uint64(*terms.TxCap)}
	}

	cap := new(uint256.Int)
	if terms.Cap != nil {
		cap.Set(terms.Cap)
	}
	currentMints := e.State.Mints

	remaining := relics.SaturatingSub(cap, currentMints)
	if remaining.IsZero() {
		return nil, errAmount(ErrMintCap, cap)
	}
	actualMints := uint64(numMints)
	if remaining.CmpUint64(actualMints) < 0 {
		actualMints = remaining.Uint64()
	}

	totalPrice, ok := terms.ComputeTotalPrice(currentMints, uint8(actualMints))
	if !ok {
		return nil, relicErr(ErrPriceComputation)
	}

	if baseLimit.Lt(totalPrice) {
		return nil, &RelicError{
			Kind:   ErrMintBaseLimitExceeded,
			Limit:  new(uint256.Int).Set(baseLimit),
			Amount: totalPrice,
		}
	}
	if baseBalance.Lt(totalPrice) {
		return nil, errAmount(ErrMintInsufficientBalance, totalPrice)
	}

	lots := make([]MintLot, 0, actualMints)
	x := new(uint256.Int).Set(currentMints)
	for i := uint64(0); i < actualMints; i++ {
		price, ok := terms.ComputePrice(x)
		if !ok {
			return nil, relicErr(ErrPriceComputation)
		}
		amount := new(uint256.Int)
		if terms.Amount != nil {
			amount.Set(terms.Amount)
		}
		lots = append(lots, MintLot{Amount: amount, Price: price})
		x.AddUint64(x, 1)
	}
	return lots, nil
}

// Unmintable determines the unmint slots a request may revert: prices are
// walked back from the most recent mint. baseMin is the minimum base
// refund the caller accepts.
func (e *RelicEntry) Unmintable(balance *uint256.Int, numMints uint8, baseMin *uint256.Int) ([]MintLot, *RelicError) {
	terms := e.MintTerms
	if terms == nil {
		return nil, relicErr(ErrUnmintable)
	}
	if terms.MaxUnmints == nil {
		return nil, relicErr(ErrUnmintNotAllowed)
	}
	maxUnmints := uint64(*terms.MaxUnmints)
	if e.State.Mints.CmpUint64(uint64(numMints)) < 0 {
		return nil, relicErr(ErrNoMintsToUnmint)
	}
	if e.IsFree() {
		return nil, relicErr(ErrUnmintNotAllowed)
	}
	if terms.Cap != nil && !terms.Cap.IsZero() && e.State.Mints.Eq(terms.Cap) {
		return nil, relicErr(ErrUnmintNotAllowed)
	}
	unminted := new(uint256.Int).AddUint64(e.State.Unmints, uint64(numMints))
	if unminted.CmpUint64(maxUnmints) > 0 {
		return nil, relicErr(ErrUnmintNotAllowed)
	}

	lots := make([]MintLot, 0, numMints)
	totalAmount := new(uint256.Int)
	totalPrice := new(uint256.Int)
	for i := uint8(0); i < numMints; i++ {
		mintIndex := new(uint256.Int).SubUint64(e.State.Mints, uint64(i)+1)
		var price *uint256.Int
		switch {
		case terms.Price == nil:
			return nil, relicErr(ErrPriceComputation)
		case terms.Price.IsFixed():
			price = new(uint256.Int).Set(terms.Price.Fixed)
		default:
			var ok bool
			price, ok = terms.ComputePrice(mintIndex)
			if !ok {
				return nil, relicErr(ErrPriceComputation)
			}
		}
		amount := new(uint256.Int)
		if terms.Amount != nil {
			amount.Set(terms.Amount)
		}
		totalAmount = relics.SaturatingAdd(totalAmount, amount)
		totalPrice = relics.SaturatingAdd(totalPrice, price)
		lots = append(lots, MintLot{Amount: amount, Price: price})
	}
	if balance.Lt(totalAmount) {
		return nil, errAmount(ErrMintInsufficientBalance, totalAmount)
	}
	if totalPrice.Lt(baseMin) {
		return nil, &RelicError{
			Kind:   ErrMintBaseLimitExceeded,
			Limit:  new(uint256.Int).Set(baseMin),
			Amount: totalPrice,
		}
	}
	return lots, nil
}

// Swap solves a swap against the token's pool. When balance is non-nil the
// required input is checked against it.
func (e *RelicEntry) Swap(swap relics.PoolSwap, balance *uint256.Int) (relics.BalanceDiff, *RelicError) {
	pool := e.Pool
	if pool == nil {
		return relics.BalanceDiff{}, relicErr(ErrSwapNotAvailable)
	}
	if pool.BaseSupply.IsZero() || pool.QuoteSupply.IsZero() {
		return relics.BalanceDiff{}, relicErr(ErrSwapNotAvailable)
	}
	// a pool still carrying its subsidy has not minted out yet
	if !pool.Subsidy.IsZero() {
		return relics.BalanceDiff{}, relicErr(ErrSwapNotAvailable)
	}
	diff, err := pool.Calculate(swap)
	if err != nil {
		return relics.BalanceDiff{}, errSwapFailed(err.(relics.PoolError))
	}
	if balance != nil && diff.Input.Gt(balance) {
		return relics.BalanceDiff{}, errAmount(ErrSwapInsufficientBalance, diff.Input)
	}
	return diff, nil
}

// IsFree reports whether mints cost nothing.
func (e *RelicEntry) IsFree() bool {
	if e.MintTerms == nil {
		return false
	}
	price := e.MintTerms.Price
	return price == nil || (price.IsFixed() && price.Fixed.IsZero())
}

// MaxSupply is the amount mintable plus the pool seed.
func (e *RelicEntry) MaxSupply() *uint256.Int {
	if e.MintTerms == nil {
		return new(uint256.Int)
	}
	amount := new(uint256.Int)
	if e.MintTerms.Amount != nil {
		amount.Set(e.MintTerms.Amount)
	}
	if e.MintTerms.Cap != nil {
		amount.Mul(amount, e.MintTerms.Cap)
	} else {
		amount.Clear()
	}
	if e.MintTerms.Seed != nil {
		amount.Add(amount, e.MintTerms.Seed)
	}
	return amount
}

// CirculatingSupply is the supply minted or swapped out of the pool, minus
// burned tokens.
func (e *RelicEntry) CirculatingSupply() *uint256.Int {
	amount := new(uint256.Int)
	seed := new(uint256.Int)
	if e.MintTerms != nil {
		if e.MintTerms.Amount != nil {
			amount.Set(e.MintTerms.Amount)
		}
		if e.MintTerms.Seed != nil {
			seed.Set(e.MintTerms.Seed)
		}
	}
	poolQuote := new(uint256.Int).Set(seed)
	if e.Pool != nil {
		poolQuote.Set(e.Pool.QuoteSupply)
	}
	supply := new(uint256.Int).Mul(e.State.Mints, amount)
	supply.Add(supply, seed)
	supply.Sub(supply, poolQuote)
	supply.Sub(supply, e.State.Burned)
	return supply
}

// LockedBaseSupply is the base token amount bound to this token: the pool's
// base side once bootstrapped, the pending subsidy, or the proceeds of
// mints so far.
func (e *RelicEntry) LockedBaseSupply() *uint256.Int {
	if e.Pool != nil {
		if !e.Pool.BaseSupply.IsZero() {
			return new(uint256.Int).Set(e.Pool.BaseSupply)
		}
		if !e.Pool.Subsidy.IsZero() {
			return new(uint256.Int).Set(e.Pool.Subsidy)
		}
	}
	if e.MintTerms == nil || e.MintTerms.Price == nil {
		return new(uint256.Int)
	}
	if e.MintTerms.Price.IsFixed() {
		return new(uint256.Int).Mul(e.State.Mints, e.MintTerms.Price.Fixed)
	}
	total := new(uint256.Int)
	x := new(uint256.Int)
	for x.Lt(e.State.Mints) {
		if price, ok := e.MintTerms.ComputePrice(x); ok {
			total = relics.SaturatingAdd(total, price)
		}
		x.AddUint64(x, 1)
	}
	return total
}
