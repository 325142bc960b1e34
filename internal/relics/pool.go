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

import "github.com/holiman/uint256"

// MaxPoolFeeBps caps the effective trading fee of any pool at 10%.
const MaxPoolFeeBps uint16 = 1000

const feeDenominator = 10_000

// SwapDirection distinguishes the two sides of a pool.
type SwapDirection int

const (
	// SwapBaseToQuote buys the token with base tokens.
	SwapBaseToQuote SwapDirection = iota
	// SwapQuoteToBase sells the token for base tokens.
	SwapQuoteToBase
)

func (d SwapDirection) String() string {
	if d == SwapBaseToQuote {
		return "base-to-quote"
	}
	return "quote-to-base"
}

// PoolSwap is a swap request against a single pool: either exact-input
// with an optional minimum output, or exact-output with an optional
// maximum input.
type PoolSwap struct {
	Direction SwapDirection
	// exact-input order
	Input     *uint256.Int
	MinOutput *uint256.Int
	// exact-output order
	Output   *uint256.Int
	MaxInput *uint256.Int
}

// ExactInputSwap builds an exact-input swap request.
func ExactInputSwap(direction SwapDirection, input, minOutput *uint256.Int) PoolSwap {
	return PoolSwap{Direction: direction, Input: input, MinOutput: minOutput}
}

// ExactOutputSwap builds an exact-output swap request.
func ExactOutputSwap(direction SwapDirection, output, maxInput *uint256.Int) PoolSwap {
	return PoolSwap{Direction: direction, Output: output, MaxInput: maxInput}
}

// IsExactInput reports whether the request fixes the input amount.
func (s PoolSwap) IsExactInput() bool {
	return s.Input != nil
}

// PoolError is a failure of the pool math itself.
type PoolError int

const (
	PoolErrorOverflow PoolError = iota
	PoolErrorSlippageMin
	PoolErrorSlippageMax
	PoolErrorAmountZero
)

func (e PoolError) Error() string {
	switch e {
	case PoolErrorOverflow:
		return "swap calculation overflow"
	case PoolErrorSlippageMin:
		return "swap output below minimum"
	case PoolErrorSlippageMax:
		return "swap input above maximum"
	case PoolErrorAmountZero:
		return "swap amount must not be zero"
	default:
		return "unknown pool error"
	}
}

// BalanceDiff reports the outcome of a swap: the amount paid in, the amount
// paid out, and the fee captured on the base side. The fee is not part of
// the pool movement; it accrues to the token owner or is burned.
type BalanceDiff struct {
	Direction SwapDirection
	Input     *uint256.Int
	Output    *uint256.Int
	Fee       *uint256.Int
}

// Pool is a constant-product market between the base token and a quote
// token. While Subsidy is non-zero the token has not minted out and swaps
// are rejected.
type Pool struct {
	BaseSupply  *uint256.Int
	QuoteSupply *uint256.Int
	FeeBps      uint16
	Subsidy     *uint256.Int
}

// NewPool constructs a pool, clamping the fee to MaxPoolFeeBps.
func NewPool(baseSupply, quoteSupply *uint256.Int, feeBps uint16, subsidy *uint256.Int) *Pool {
	if feeBps > MaxPoolFeeBps {
		feeBps = MaxPoolFeeBps
	}
	return &Pool{
		BaseSupply:  new(uint256.Int).Set(baseSupply),
		QuoteSupply: new(uint256.Int).Set(quoteSupply),
		FeeBps:      feeBps,
		Subsidy:     new(uint256.Int).Set(subsidy),
	}
}

// Calculate solves a swap request against the current supplies without
// mutating them. Fees accumulate on the base side only: on the input for
// base-to-quote swaps, on the output for quote-to-base swaps.
func (p *Pool) Calculate(swap PoolSwap) (BalanceDiff, error) {
	if swap.IsExactInput() {
		return p.calculateExactInput(swap)
	}
	return p.calculateExactOutput(swap)
}

func (p *Pool) calculateExactInput(swap PoolSwap) (BalanceDiff, error) {
	input := swap.Input
	if input == nil || input.IsZero() {
		return BalanceDiff{}, PoolErrorAmountZero
	}
	feeBps := uint256.NewInt(uint64(p.effectiveFeeBps()))
	denom := uint256.NewInt(feeDenominator)

	var output, fee *uint256.Int
	switch swap.Direction {
	case SwapBaseToQuote:
		// fee comes off the base input before it enters the pool
		scaled, ok := CheckedMul(input, feeBps)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		fee = scaled.Div(scaled, denom)
		net := new(uint256.Int).Sub(input, fee)
		if net.IsZero() {
			return BalanceDiff{}, PoolErrorAmountZero
		}
		numerator, ok := CheckedMul(p.QuoteSupply, net)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		divisor, ok := CheckedAdd(p.BaseSupply, net)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		output = numerator.Div(numerator, divisor)
	case SwapQuoteToBase:
		// fee comes off the base proceeds leaving the pool
		numerator, ok := CheckedMul(p.BaseSupply, input)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		divisor, ok := CheckedAdd(p.QuoteSupply, input)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		gross := numerator.Div(numerator, divisor)
		scaled, ok := CheckedMul(gross, feeBps)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		fee = scaled.Div(scaled, denom)
		output = new(uint256.Int).Sub(gross, fee)
	}

	if swap.MinOutput != nil && output.Lt(swap.MinOutput) {
		return BalanceDiff{}, PoolErrorSlippageMin
	}
	return BalanceDiff{
		Direction: swap.Direction,
		Input:     new(uint256.Int).Set(input),
		Output:    output,
		Fee:       fee,
	}, nil
}

func (p *Pool) calculateExactOutput(swap PoolSwap) (BalanceDiff, error) {
	output := swap.Output
	if output == nil || output.IsZero() {
		return BalanceDiff{}, PoolErrorAmountZero
	}
	feeBps := uint64(p.effectiveFeeBps())
	keepBps := uint256.NewInt(feeDenominator - feeBps)
	denom := uint256.NewInt(feeDenominator)

	var input, fee *uint256.Int
	switch swap.Direction {
	case SwapBaseToQuote:
		// solve the base amount entering the pool, then gross it up to
		// cover the fee
		if output.Cmp(p.QuoteSupply) >= 0 {
			return BalanceDiff{}, PoolErrorOverflow
		}
		numerator, ok := CheckedMul(p.BaseSupply, output)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		net := ceilDiv(numerator, new(uint256.Int).Sub(p.QuoteSupply, output))
		scaled, ok := CheckedMul(net, denom)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		input = ceilDiv(scaled, keepBps)
		fee = new(uint256.Int).Sub(input, net)
	case SwapQuoteToBase:
		// gross up the requested base proceeds to cover the fee, then
		// solve the quote amount that buys them
		scaled, ok := CheckedMul(output, denom)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		gross := ceilDiv(scaled, keepBps)
		fee = new(uint256.Int).Sub(gross, output)
		if gross.Cmp(p.BaseSupply) >= 0 {
			return BalanceDiff{}, PoolErrorOverflow
		}
		numerator, ok := CheckedMul(p.QuoteSupply, gross)
		if !ok {
			return BalanceDiff{}, PoolErrorOverflow
		}
		input = ceilDiv(numerator, new(uint256.Int).Sub(p.BaseSupply, gross))
	}

	if !FitsU128(input) {
		return BalanceDiff{}, PoolErrorOverflow
	}
	if swap.MaxInput != nil && input.Gt(swap.MaxInput) {
		return BalanceDiff{}, PoolErrorSlippageMax
	}
	return BalanceDiff{
		Direction: swap.Direction,
		Input:     input,
		Output:    new(uint256.Int).Set(output),
		Fee:       fee,
	}, nil
}

// Apply moves a calculated diff into the pool supplies.
func (p *Pool) Apply(diff BalanceDiff) {
	switch diff.Direction {
	case SwapBaseToQuote:
		net := new(uint256.Int).Sub(diff.Input, diff.Fee)
		p.BaseSupply.Add(p.BaseSupply, net)
		p.QuoteSupply.Sub(p.QuoteSupply, diff.Output)
	case SwapQuoteToBase:
		gross := new(uint256.Int).Add(diff.Output, diff.Fee)
		p.QuoteSupply.Add(p.QuoteSupply, diff.Input)
		p.BaseSupply.Sub(p.BaseSupply, gross)
	}
}

func (p *Pool) effectiveFeeBps() uint16 {
	if p.FeeBps > MaxPoolFeeBps {
		return MaxPoolFeeBps
	}
	return p.FeeBps
}
