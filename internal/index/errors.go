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
	"fmt"

	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

// RelicErrorKind enumerates recoverable evaluator failures. They are
// recorded as error events and skip only the failing sub-step; they never
// escalate to a Cenotaph.
type RelicErrorKind int

const (
	ErrSealingAlreadyExists RelicErrorKind = iota
	ErrSealingInsufficientBalance
	ErrSealingBaseToken
	ErrSealingNotFound
	ErrUnmintable
	ErrMintCap
	ErrMintInsufficientBalance
	ErrUnmintNotAllowed
	ErrNoMintsToUnmint
	ErrMaxMintPerTxExceeded
	ErrMintBaseLimitExceeded
	ErrMintBlockCapExceeded
	ErrMissingSubsidy
	ErrSwapNotAvailable
	ErrSwapFailed
	ErrSwapInsufficientBalance
	ErrInscriptionMissing
	ErrInscriptionMetadataMissing
	ErrInvalidMetadata
	ErrPriceComputation
	ErrRelicAlreadyEnshrined
	ErrRelicNotFound
	ErrRelicOwnerOnly
	ErrNoClaimableBalance
)

// RelicError is a recoverable evaluator failure with its context.
type RelicError struct {
	Kind   RelicErrorKind
	Relic  relics.RelicID
	Ticker relics.SpacedRelic
	Amount *uint256.Int
	Limit  *uint256.Int
	Count  uint64
	Pool   relics.PoolError
}

func (e *RelicError) Error() string {
	switch e.Kind {
	case ErrSealingAlreadyExists:
		return fmt.Sprintf("ticker has already been sealed: %s", e.Ticker)
	case ErrSealingInsufficientBalance:
		return fmt.Sprintf("insufficient balance for sealing fee: %s", e.Amount)
	case ErrSealingBaseToken:
		return "sealing base token is invalid"
	case ErrSealingNotFound:
		return "sealing not found"
	case ErrUnmintable:
		return "not mintable"
	case ErrMintCap:
		return fmt.Sprintf("limited to %s mints", e.Amount)
	case ErrMintInsufficientBalance:
		return fmt.Sprintf("insufficient balance for mint price of %s", e.Amount)
	case ErrUnmintNotAllowed:
		return "unmint not allowed"
	case ErrNoMintsToUnmint:
		return "no mints to unmint"
	case ErrMaxMintPerTxExceeded:
		return fmt.Sprintf("maximum mints per transaction exceeded: %d", e.Count)
	case ErrMintBaseLimitExceeded:
		return fmt.Sprintf("mint base limit exceeded: limit %s, price %s", e.Limit, e.Amount)
	case ErrMintBlockCapExceeded:
		return fmt.Sprintf("max mints per block exceeded: only %d allowed per block", e.Count)
	case ErrMissingSubsidy:
		return fmt.Sprintf("missing subsidy for enshrining: %s", e.Amount)
	case ErrSwapNotAvailable:
		return "liquidity pool for swap not available (yet)"
	case ErrSwapFailed:
		return fmt.Sprintf("swap failed: %s", e.Pool.Error())
	case ErrSwapInsufficientBalance:
		return fmt.Sprintf("insufficient balance for swap %s", e.Amount)
	case ErrInscriptionMissing:
		return "no inscription found in transaction"
	case ErrInscriptionMetadataMissing:
		return "no metadata on inscription found"
	case ErrInvalidMetadata:
		return "inscription metadata does not contain a valid ticker"
	case ErrPriceComputation:
		return "price computation error"
	case ErrRelicAlreadyEnshrined:
		return "relic has already been enshrined"
	case ErrRelicNotFound:
		return fmt.Sprintf("relic not found: %s", e.Relic)
	case ErrRelicOwnerOnly:
		return "this operation can only be performed by the relic owner"
	case ErrNoClaimableBalance:
		return "unable to claim: no claimable balance for given output"
	default:
		return "unknown relic error"
	}
}

func relicErr(kind RelicErrorKind) *RelicError {
	return &RelicError{Kind: kind}
}

func errRelicNotFound(id relics.RelicID) *RelicError {
	return &RelicError{Kind: ErrRelicNotFound, Relic: id}
}

func errAmount(kind RelicErrorKind, amount *uint256.Int) *RelicError {
	return &RelicError{Kind: kind, Amount: new(uint256.Int).Set(amount)}
}

func errSwapFailed(cause relics.PoolError) *RelicError {
	return &RelicError{Kind: ErrSwapFailed, Pool: cause}
}
