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

package storage

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/config"
	"github.com/relicsprotocol/relicd/internal/index"
	"github.com/relicsprotocol/relicd/internal/relics"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()
	config.GetConfig().Storage.Directory = t.TempDir()
	s := &Storage{}
	if err := s.Load(); err != nil {
		t.Fatalf("failed to load storage: %s", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close storage: %s", err)
		}
	})
	return s
}

func testRelicEntry(t *testing.T) *index.RelicEntry {
	t.Helper()
	spaced, err := relics.ParseSpacedRelic("STORED•RELIC")
	if err != nil {
		t.Fatal(err)
	}
	symbol := 'a'
	ownerSequence := uint32(123)
	blockCap := uint32(50)
	txCap := uint8(5)
	entry := index.NewRelicEntry()
	entry.Block = 12
	entry.Fee = 250
	entry.Number = 6
	entry.SpacedRelic = spaced
	entry.Symbol = &symbol
	entry.OwnerSequence = &ownerSequence
	entry.MintTerms = &relics.MintTerms{
		Amount:   uint256.NewInt(4),
		Cap:      uint256.NewInt(100),
		Price:    relics.FixedPrice(uint256.NewInt(8)),
		Seed:     uint256.NewInt(22),
		BlockCap: &blockCap,
		TxCap:    &txCap,
	}
	entry.State.Burned = uint256.NewInt(33)
	entry.State.Mints = uint256.NewInt(44)
	entry.State.Unmints = uint256.NewInt(17)
	entry.Pool = relics.NewPool(
		uint256.NewInt(321),
		uint256.NewInt(123),
		13,
		uint256.NewInt(10_000),
	)
	entry.Timestamp = 10
	return entry
}

func TestEntryCodecRoundTrip(t *testing.T) {
	entry := testRelicEntry(t)
	data, err := encodeEntry(entry)
	if err != nil {
		t.Fatalf("encoding failed: %s", err)
	}
	decoded, err := decodeEntry(data)
	if err != nil {
		t.Fatalf("decoding failed: %s", err)
	}
	if decoded.SpacedRelic != entry.SpacedRelic {
		t.Errorf("spaced relic mismatch: %s != %s", decoded.SpacedRelic, entry.SpacedRelic)
	}
	if decoded.Fee != entry.Fee || decoded.Number != entry.Number || decoded.Block != entry.Block {
		t.Errorf("scalar field mismatch")
	}
	if *decoded.Symbol != *entry.Symbol {
		t.Errorf("symbol mismatch")
	}
	if *decoded.OwnerSequence != *entry.OwnerSequence {
		t.Errorf("owner sequence mismatch")
	}
	if !decoded.State.Burned.Eq(entry.State.Burned) ||
		!decoded.State.Mints.Eq(entry.State.Mints) ||
		!decoded.State.Unmints.Eq(entry.State.Unmints) {
		t.Errorf("state mismatch")
	}
	if decoded.MintTerms == nil || !decoded.MintTerms.Price.Fixed.Eq(entry.MintTerms.Price.Fixed) {
		t.Errorf("mint terms mismatch")
	}
	if *decoded.MintTerms.BlockCap != *entry.MintTerms.BlockCap {
		t.Errorf("block cap mismatch")
	}
	if decoded.Pool == nil || !decoded.Pool.Subsidy.Eq(entry.Pool.Subsidy) {
		t.Errorf("pool mismatch")
	}
}

func TestEntryCodecFormulaPrice(t *testing.T) {
	entry := testRelicEntry(t)
	entry.MintTerms.Price = relics.FormulaPrice(
		uint256.NewInt(29_276_332),
		uint256.NewInt(6_994),
	)
	data, err := encodeEntry(entry)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := decodeEntry(data)
	if err != nil {
		t.Fatal(err)
	}
	price := decoded.MintTerms.Price
	if price.IsFixed() {
		t.Fatal("expected formula price")
	}
	if !price.A.Eq(uint256.NewInt(29_276_332)) || !price.B.Eq(uint256.NewInt(6_994)) {
		t.Errorf("formula parameters mismatch")
	}
}

func TestBlockTxStateRoundTrip(t *testing.T) {
	s := testStorage(t)

	// the base token is bootstrapped on load
	block := s.BeginBlock()
	base, err := block.RelicEntry(relics.BaseTokenID)
	if err != nil {
		t.Fatal(err)
	}
	if base == nil {
		t.Fatal("base token entry should exist after load")
	}

	entry := testRelicEntry(t)
	id := relics.RelicID{Block: 12, Tx: 1}
	if err := block.PutRelicEntry(id, entry); err != nil {
		t.Fatal(err)
	}
	if err := block.PutRelicIDByName(entry.SpacedRelic.Relic, id); err != nil {
		t.Fatal(err)
	}
	if err := block.PutSealing(entry.SpacedRelic, 77); err != nil {
		t.Fatal(err)
	}

	outpoint := wire.OutPoint{Hash: chainhash.Hash{1, 2, 3}, Index: 4}
	balances := []index.OutpointBalance{{ID: id, Amount: uint256.NewInt(999)}}
	if err := block.PutOutpointBalances(outpoint, balances); err != nil {
		t.Fatal(err)
	}

	owner := index.RelicOwner{9, 9, 9}
	if err := block.PutClaimable(owner, uint256.NewInt(555)); err != nil {
		t.Fatal(err)
	}

	if err := block.Commit(); err != nil {
		t.Fatal(err)
	}

	// verify in a fresh block transaction
	block = s.BeginBlock()
	defer block.Discard()

	loaded, err := block.RelicEntry(id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || loaded.SpacedRelic != entry.SpacedRelic {
		t.Errorf("entry did not round trip")
	}

	foundID, ok, err := block.RelicIDByName(entry.SpacedRelic.Relic)
	if err != nil || !ok || foundID != id {
		t.Errorf("name lookup did not round trip")
	}

	sequence, ok, err := block.SealingByRelic(entry.SpacedRelic.Relic)
	if err != nil || !ok || sequence != 77 {
		t.Errorf("sealing lookup did not round trip")
	}
	spaced, ok, err := block.SealingBySequence(77)
	if err != nil || !ok || spaced != entry.SpacedRelic {
		t.Errorf("sealing reverse lookup did not round trip")
	}

	taken, err := block.TakeOutpointBalances(outpoint)
	if err != nil || len(taken) != 1 || !taken[0].Amount.Eq(uint256.NewInt(999)) {
		t.Errorf("outpoint balances did not round trip")
	}
	// taking consumes
	again, err := block.TakeOutpointBalances(outpoint)
	if err != nil || again != nil {
		t.Errorf("outpoint balances should be consumed")
	}

	claimable, ok, err := block.TakeClaimable(owner)
	if err != nil || !ok || !claimable.Eq(uint256.NewInt(555)) {
		t.Errorf("claimable did not round trip")
	}
}

func TestEventJournalIndexes(t *testing.T) {
	s := testStorage(t)
	block := s.BeginBlock()

	txid := chainhash.Hash{7}
	otherTxid := chainhash.Hash{8}
	id := relics.RelicID{Block: 12, Tx: 1}
	events := []index.Event{
		{
			Height:     100,
			EventIndex: 0,
			Txid:       txid,
			Info: index.MintedInfo{
				Relic:      id,
				Amount:     uint256.NewInt(1000),
				Multiplier: 1,
			},
		},
		{
			Height:     100,
			EventIndex: 1,
			Txid:       txid,
			Info: index.SwappedInfo{
				Relic:       id,
				BaseAmount:  uint256.NewInt(562),
				QuoteAmount: uint256.NewInt(129),
				Fee:         uint256.NewInt(6),
				IsSellOrder: true,
			},
		},
		{
			Height:     100,
			EventIndex: 2,
			Txid:       otherTxid,
			Info:       index.ClaimedInfo{Amount: uint256.NewInt(12)},
		},
	}
	for _, event := range events {
		if err := block.AppendEvent(event); err != nil {
			t.Fatal(err)
		}
	}
	if err := block.Commit(); err != nil {
		t.Fatal(err)
	}

	blockEvents, err := s.BlockEvents(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(blockEvents) != 3 {
		t.Fatalf("expected 3 block events, got %d", len(blockEvents))
	}
	if blockEvents[1].EventIndex != 1 {
		t.Errorf("block events should be ordered by event index")
	}

	txEvents, err := s.TransactionEvents(txid)
	if err != nil {
		t.Fatal(err)
	}
	if len(txEvents) != 2 {
		t.Errorf("expected 2 events for txid, got %d", len(txEvents))
	}

	relicEvents, err := s.RelicEvents(id)
	if err != nil {
		t.Fatal(err)
	}
	// Minted and Swapped are relic history; Claimed belongs to the base
	// token
	if len(relicEvents) != 2 {
		t.Errorf("expected 2 relic history events, got %d", len(relicEvents))
	}
	swapped, ok := relicEvents[1].Info.(index.SwappedInfo)
	if !ok {
		t.Fatalf("expected swapped info, got %T", relicEvents[1].Info)
	}
	if !swapped.BaseAmount.Eq(uint256.NewInt(562)) || !swapped.IsSellOrder {
		t.Errorf("swapped event did not round trip")
	}
}
