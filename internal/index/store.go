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

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

// OutpointBalance is one token balance held by an outpoint.
type OutpointBalance struct {
	ID     relics.RelicID
	Amount *uint256.Int
}

// StateStore is the protocol state as seen by the evaluator: token entries,
// outpoint balances, sealings, claimable fees, and the event journal. All
// mutations within a block must become visible atomically at the block's
// commit point.
type StateStore interface {
	// RelicEntry loads a token entry, returning nil if absent.
	RelicEntry(id relics.RelicID) (*RelicEntry, error)
	PutRelicEntry(id relics.RelicID, entry *RelicEntry) error

	// RelicIDByName resolves an enshrined ticker to its token.
	RelicIDByName(name relics.Relic) (relics.RelicID, bool, error)
	PutRelicIDByName(name relics.Relic, id relics.RelicID) error
	PutRelicByTransaction(txid chainhash.Hash, name relics.Relic) error

	// RelicCount is the number of enshrined tokens, which is also the
	// next token number.
	RelicCount() (uint64, error)
	SetRelicCount(count uint64) error

	// SealingByRelic resolves a sealed ticker to the sequence number of
	// its sealing inscription.
	SealingByRelic(name relics.Relic) (uint32, bool, error)
	// SealingBySequence resolves a sealing inscription back to its
	// ticker.
	SealingBySequence(sequence uint32) (relics.SpacedRelic, bool, error)
	PutSealing(spaced relics.SpacedRelic, sequence uint32) error

	// TakeOutpointBalances removes and returns the balances of an
	// outpoint being spent.
	TakeOutpointBalances(outpoint wire.OutPoint) ([]OutpointBalance, error)
	PutOutpointBalances(outpoint wire.OutPoint, balances []OutpointBalance) error

	// TakeClaimable removes and returns the claimable balance of an
	// owner, reporting whether one existed.
	TakeClaimable(owner RelicOwner) (*uint256.Int, bool, error)
	PutClaimable(owner RelicOwner, amount *uint256.Int) error

	AppendEvent(event Event) error
}

// EncodeOutpointBalances renders balances as varint triples
// (block, tx, amount), in the order given.
func EncodeOutpointBalances(balances []OutpointBalance, buf []byte) []byte {
	for _, balance := range balances {
		buf = relics.EncodeVarintUint64(balance.ID.Block, buf)
		buf = relics.EncodeVarintUint64(uint64(balance.ID.Tx), buf)
		buf = relics.EncodeVarint(balance.Amount, buf)
	}
	return buf
}

// DecodeOutpointBalances parses a balance buffer.
func DecodeOutpointBalances(buf []byte) ([]OutpointBalance, error) {
	var balances []OutpointBalance
	i := 0
	next := func() (*uint256.Int, error) {
		value, length, err := relics.DecodeVarint(buf[i:])
		if err != nil {
			return nil, err
		}
		i += length
		return value, nil
	}
	for i < len(buf) {
		block, err := next()
		if err != nil {
			return nil, err
		}
		tx, err := next()
		if err != nil {
			return nil, err
		}
		amount, err := next()
		if err != nil {
			return nil, err
		}
		if !block.IsUint64() || !tx.IsUint64() || tx.Uint64() > uint64(^uint32(0)) {
			return nil, fmt.Errorf("invalid relic ID in balance buffer")
		}
		id, ok := relics.NewRelicID(block.Uint64(), uint32(tx.Uint64()))
		if !ok {
			return nil, fmt.Errorf("invalid relic ID in balance buffer")
		}
		balances = append(balances, OutpointBalance{ID: id, Amount: amount})
	}
	return balances, nil
}
