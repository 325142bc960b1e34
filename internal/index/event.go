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
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

// RelicOperation names the evaluator sub-step that produced an event.
type RelicOperation int

const (
	OpSeal RelicOperation = iota
	OpEnshrine
	OpMint
	OpMultiMint
	OpUnmint
	OpMultiUnmint
	OpSwap
	OpClaim
)

func (o RelicOperation) String() string {
	switch o {
	case OpSeal:
		return "seal"
	case OpEnshrine:
		return "enshrine"
	case OpMint:
		return "mint"
	case OpMultiMint:
		return "multi-mint"
	case OpUnmint:
		return "unmint"
	case OpMultiUnmint:
		return "multi-unmint"
	case OpSwap:
		return "swap"
	case OpClaim:
		return "claim"
	default:
		return "unknown"
	}
}

// EventInfo is the payload of a journal event.
type EventInfo interface {
	// RelicID returns the token the event refers to, if any.
	RelicID() (relics.RelicID, bool)
	// RelicHistory reports whether the event is part of the per-token
	// history index.
	RelicHistory() bool
}

// SealedInfo records a one-time ticker reservation.
type SealedInfo struct {
	SpacedRelic    relics.SpacedRelic
	SequenceNumber uint32
	InscriptionID  InscriptionID
}

// EnshrinedInfo records the creation of a token entry.
type EnshrinedInfo struct {
	Relic         relics.RelicID
	InscriptionID InscriptionID
}

// MintedInfo records a single mint or unmint slot.
type MintedInfo struct {
	Relic      relics.RelicID
	Amount     *uint256.Int
	Multiplier uint32
	IsUnmint   bool
}

// MultiMintedInfo records an aggregate multi-mint or multi-unmint.
type MultiMintedInfo struct {
	Relic     relics.RelicID
	Amount    *uint256.Int
	NumMints  uint8
	BaseLimit *uint256.Int
	IsUnmint  bool
}

// BurnedInfo records tokens destroyed at finalisation.
type BurnedInfo struct {
	Relic  relics.RelicID
	Amount *uint256.Int
}

// TransferredInfo records tokens assigned to an output.
type TransferredInfo struct {
	Relic  relics.RelicID
	Amount *uint256.Int
	Output uint32
}

// SpentInfo records the net outflow of a token from an address.
type SpentInfo struct {
	Relic   relics.RelicID
	Amount  *uint256.Int
	Address string
}

// ReceivedInfo records the net inflow of a token to an address.
type ReceivedInfo struct {
	Relic   relics.RelicID
	Amount  *uint256.Int
	Address string
}

// SwappedInfo records one pool swap.
type SwappedInfo struct {
	Relic        relics.RelicID
	BaseAmount   *uint256.Int
	QuoteAmount  *uint256.Int
	Fee          *uint256.Int
	IsSellOrder  bool
	IsExactInput bool
}

// ClaimedInfo records a fee claim, always in base tokens.
type ClaimedInfo struct {
	Amount *uint256.Int
}

// ErrorInfo records a failed evaluator sub-step.
type ErrorInfo struct {
	Operation RelicOperation
	Err       *RelicError
}

func (i SealedInfo) RelicID() (relics.RelicID, bool)    { return relics.RelicID{}, false }
func (i SealedInfo) RelicHistory() bool                 { return false }
func (i EnshrinedInfo) RelicID() (relics.RelicID, bool) { return i.Relic, true }
func (i EnshrinedInfo) RelicHistory() bool              { return false }
func (i MintedInfo) RelicID() (relics.RelicID, bool)    { return i.Relic, true }
func (i MintedInfo) RelicHistory() bool                 { return true }
func (i MultiMintedInfo) RelicID() (relics.RelicID, bool) {
	return i.Relic, true
}
func (i MultiMintedInfo) RelicHistory() bool              { return false }
func (i BurnedInfo) RelicID() (relics.RelicID, bool)      { return i.Relic, true }
func (i BurnedInfo) RelicHistory() bool                   { return true }
func (i TransferredInfo) RelicID() (relics.RelicID, bool) { return i.Relic, true }
func (i TransferredInfo) RelicHistory() bool              { return true }
func (i SpentInfo) RelicID() (relics.RelicID, bool)       { return i.Relic, true }
func (i SpentInfo) RelicHistory() bool                    { return true }
func (i ReceivedInfo) RelicID() (relics.RelicID, bool)    { return i.Relic, true }
func (i ReceivedInfo) RelicHistory() bool                 { return true }
func (i SwappedInfo) RelicID() (relics.RelicID, bool)     { return i.Relic, true }
func (i SwappedInfo) RelicHistory() bool                  { return true }
func (i ClaimedInfo) RelicID() (relics.RelicID, bool)     { return relics.BaseTokenID, true }
func (i ClaimedInfo) RelicHistory() bool                  { return false }
func (i ErrorInfo) RelicID() (relics.RelicID, bool)       { return relics.RelicID{}, false }
func (i ErrorInfo) RelicHistory() bool                    { return false }

// Event is one entry of the ordered journal. Events are globally ordered by
// (Height, EventIndex) and additionally indexed by transaction and, for the
// relic history subset, by token.
type Event struct {
	Height     uint32
	EventIndex uint32
	Txid       chainhash.Hash
	Info       EventInfo
}

// eventEmitter assigns monotone per-block event indexes and appends events
// to the store.
type eventEmitter struct {
	height uint32
	index  uint32
	store  StateStore
}

func (e *eventEmitter) emit(txid chainhash.Hash, info EventInfo) error {
	event := Event{
		Height:     e.height,
		EventIndex: e.index,
		Txid:       txid,
		Info:       info,
	}
	e.index++
	return e.store.AppendEvent(event)
}
