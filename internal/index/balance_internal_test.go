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
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

func newEmptyBalances(outputs int) *relicBalances {
	b := &relicBalances{
		total:     make(map[relics.RelicID]*uint256.Int),
		safe:      make(map[relics.RelicID]*uint256.Int),
		burned:    make(map[relics.RelicID]*uint256.Int),
		allocated: make([]map[relics.RelicID]*uint256.Int, outputs),
		incoming:  make(map[addressBalance]*uint256.Int),
		outgoing:  make(map[addressBalance]*uint256.Int),
	}
	for i := range b.allocated {
		b.allocated[i] = make(map[relics.RelicID]*uint256.Int)
	}
	return b
}

func TestBalancesSafeConsumedLast(t *testing.T) {
	id := relics.RelicID{Block: 5, Tx: 1}
	b := newEmptyBalances(1)
	b.addSafe(id, uint256.NewInt(100))
	b.add(id, uint256.NewInt(50))

	if b.get(id).Uint64() != 150 || b.getSafe(id).Uint64() != 100 {
		t.Fatalf("unexpected starting balances")
	}

	// removing 50 consumes the unsafe part first
	b.remove(id, uint256.NewInt(50))
	if b.get(id).Uint64() != 100 || b.getSafe(id).Uint64() != 100 {
		t.Errorf("unsafe balance should be consumed first: total %s safe %s", b.get(id), b.getSafe(id))
	}

	// removing beyond the unsafe part shrinks the safe balance
	b.remove(id, uint256.NewInt(30))
	if b.get(id).Uint64() != 70 || b.getSafe(id).Uint64() != 70 {
		t.Errorf("safe balance should track the total: total %s safe %s", b.get(id), b.getSafe(id))
	}
}

func TestBalancesRemoveSafe(t *testing.T) {
	id := relics.RelicID{Block: 5, Tx: 1}
	b := newEmptyBalances(1)
	b.addSafe(id, uint256.NewInt(100))
	b.removeSafe(id, uint256.NewInt(60))
	if b.get(id).Uint64() != 40 || b.getSafe(id).Uint64() != 40 {
		t.Errorf("removeSafe should debit both balances")
	}
}

func TestBalancesRemovePanicsOnShortfall(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on shortfall")
		}
	}()
	id := relics.RelicID{Block: 5, Tx: 1}
	b := newEmptyBalances(1)
	b.add(id, uint256.NewInt(10))
	b.remove(id, uint256.NewInt(11))
}

func TestBalancesBurnAll(t *testing.T) {
	id1 := relics.RelicID{Block: 5, Tx: 1}
	id2 := relics.RelicID{Block: 6, Tx: 1}
	b := newEmptyBalances(1)
	b.add(id1, uint256.NewInt(10))
	b.addSafe(id2, uint256.NewInt(20))
	b.burnAll()
	if !b.get(id1).IsZero() || !b.get(id2).IsZero() {
		t.Errorf("burnAll should clear balances")
	}
	if b.burned[id1].Uint64() != 10 || b.burned[id2].Uint64() != 20 {
		t.Errorf("burnAll should record burns")
	}
}

func TestBoostMultiplierDeterministic(t *testing.T) {
	rareChance := uint32(500_000)
	rareCap := uint16(10)
	ultraChance := uint32(100_000)
	ultraCap := uint16(20)
	boost := &relics.BoostTerms{
		RareChance:             &rareChance,
		RareMultiplierCap:      &rareCap,
		UltraRareChance:        &ultraChance,
		UltraRareMultiplierCap: &ultraCap,
	}
	id := relics.RelicID{Block: 840_000, Tx: 3}
	txid := chainhash.Hash{1, 2, 3}

	first := boostMultiplier(id, txid, 0, boost)
	for i := 0; i < 10; i++ {
		if boostMultiplier(id, txid, 0, boost) != first {
			t.Fatalf("multiplier must be deterministic")
		}
	}

	// multipliers stay within the configured caps over many slots
	for slot := uint64(0); slot < 1000; slot++ {
		multiplier := boostMultiplier(id, txid, slot, boost)
		if multiplier < 1 || multiplier > uint32(ultraCap) {
			t.Fatalf("multiplier %d out of range at slot %d", multiplier, slot)
		}
	}

	// different slots must not all share one multiplier
	varied := false
	for slot := uint64(1); slot < 100; slot++ {
		if boostMultiplier(id, txid, slot, boost) != first {
			varied = true
			break
		}
	}
	if !varied {
		t.Errorf("expected varying multipliers across slots")
	}
}
