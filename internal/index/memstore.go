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
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

// MemStore is an in-memory StateStore. It backs the engine tests and is
// useful for dry-run indexing; the badger-backed store is the durable
// implementation.
type MemStore struct {
	entries      map[relics.RelicID]*RelicEntry
	idsByName    map[relics.Relic]relics.RelicID
	relicsByTx   map[chainhash.Hash]relics.Relic
	sealings     map[relics.Relic]uint32
	sealingsBack map[uint32]relics.SpacedRelic
	balances     map[wire.OutPoint][]byte
	claimable    map[RelicOwner]*uint256.Int
	events       []Event
	relicCount   uint64
}

// NewMemStore returns an empty in-memory state.
func NewMemStore() *MemStore {
	return &MemStore{
		entries:      make(map[relics.RelicID]*RelicEntry),
		idsByName:    make(map[relics.Relic]relics.RelicID),
		relicsByTx:   make(map[chainhash.Hash]relics.Relic),
		sealings:     make(map[relics.Relic]uint32),
		sealingsBack: make(map[uint32]relics.SpacedRelic),
		balances:     make(map[wire.OutPoint][]byte),
		claimable:    make(map[RelicOwner]*uint256.Int),
	}
}

func (s *MemStore) RelicEntry(id relics.RelicID) (*RelicEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return entry, nil
}

func (s *MemStore) PutRelicEntry(id relics.RelicID, entry *RelicEntry) error {
	s.entries[id] = entry
	return nil
}

func (s *MemStore) RelicIDByName(name relics.Relic) (relics.RelicID, bool, error) {
	id, ok := s.idsByName[name]
	return id, ok, nil
}

func (s *MemStore) PutRelicIDByName(name relics.Relic, id relics.RelicID) error {
	s.idsByName[name] = id
	return nil
}

func (s *MemStore) PutRelicByTransaction(txid chainhash.Hash, name relics.Relic) error {
	s.relicsByTx[txid] = name
	return nil
}

func (s *MemStore) RelicCount() (uint64, error) {
	return s.relicCount, nil
}

func (s *MemStore) SetRelicCount(count uint64) error {
	s.relicCount = count
	return nil
}

func (s *MemStore) SealingByRelic(name relics.Relic) (uint32, bool, error) {
	sequence, ok := s.sealings[name]
	return sequence, ok, nil
}

func (s *MemStore) SealingBySequence(sequence uint32) (relics.SpacedRelic, bool, error) {
	spaced, ok := s.sealingsBack[sequence]
	return spaced, ok, nil
}

func (s *MemStore) PutSealing(spaced relics.SpacedRelic, sequence uint32) error {
	s.sealings[spaced.Relic] = sequence
	s.sealingsBack[sequence] = spaced
	return nil
}

func (s *MemStore) TakeOutpointBalances(outpoint wire.OutPoint) ([]OutpointBalance, error) {
	buf, ok := s.balances[outpoint]
	if !ok {
		return nil, nil
	}
	delete(s.balances, outpoint)
	return DecodeOutpointBalances(buf)
}

func (s *MemStore) PutOutpointBalances(outpoint wire.OutPoint, balances []OutpointBalance) error {
	s.balances[outpoint] = EncodeOutpointBalances(balances, nil)
	return nil
}

func (s *MemStore) TakeClaimable(owner RelicOwner) (*uint256.Int, bool, error) {
	amount, ok := s.claimable[owner]
	if !ok {
		return nil, false, nil
	}
	delete(s.claimable, owner)
	return amount, true, nil
}

func (s *MemStore) PutClaimable(owner RelicOwner, amount *uint256.Int) error {
	s.claimable[owner] = amount
	return nil
}

func (s *MemStore) AppendEvent(event Event) error {
	s.events = append(s.events, event)
	return nil
}

// Events returns all journal events in order.
func (s *MemStore) Events() []Event {
	return s.events
}

// TransactionEvents returns the events of one transaction.
func (s *MemStore) TransactionEvents(txid chainhash.Hash) []Event {
	var out []Event
	for _, event := range s.events {
		if event.Txid == txid {
			out = append(out, event)
		}
	}
	return out
}

// RelicEvents returns the relic history of one token.
func (s *MemStore) RelicEvents(id relics.RelicID) []Event {
	var out []Event
	for _, event := range s.events {
		if !event.Info.RelicHistory() {
			continue
		}
		if eventID, ok := event.Info.RelicID(); ok && eventID == id {
			out = append(out, event)
		}
	}
	return out
}

// OutpointBalances returns the balances of an outpoint without consuming
// them.
func (s *MemStore) OutpointBalances(outpoint wire.OutPoint) ([]OutpointBalance, error) {
	buf, ok := s.balances[outpoint]
	if !ok {
		return nil, nil
	}
	return DecodeOutpointBalances(buf)
}

// Claimable returns the claimable balance of an owner without consuming it.
func (s *MemStore) Claimable(owner RelicOwner) *uint256.Int {
	amount, ok := s.claimable[owner]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(amount)
}
