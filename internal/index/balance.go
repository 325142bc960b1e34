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
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

type addressBalance struct {
	Address string
	ID      relics.RelicID
}

// relicBalances is the per-transaction balance ledger. It tracks the
// unallocated total per token, the safe subset whose inputs were created in
// a prior block, per-output allocations, and pending burns. Incoming and
// outgoing flows per address feed the Spent/Received events.
type relicBalances struct {
	total     map[relics.RelicID]*uint256.Int
	safe      map[relics.RelicID]*uint256.Int
	burned    map[relics.RelicID]*uint256.Int
	allocated []map[relics.RelicID]*uint256.Int
	incoming  map[addressBalance]*uint256.Int
	outgoing  map[addressBalance]*uint256.Int
}

// newRelicBalances builds the ledger from the transaction inputs, removing
// the consumed outpoint balances from the store. Balances from outpoints
// created within the current block do not count as safe.
func newRelicBalances(
	tx *wire.MsgTx,
	unsafeTxids map[chainhash.Hash]struct{},
	store StateStore,
	prevOuts txscript.PrevOutputFetcher,
	addressFromScript func([]byte) (string, bool),
) (*relicBalances, error) {
	b := &relicBalances{
		total:     make(map[relics.RelicID]*uint256.Int),
		safe:      make(map[relics.RelicID]*uint256.Int),
		burned:    make(map[relics.RelicID]*uint256.Int),
		allocated: make([]map[relics.RelicID]*uint256.Int, len(tx.TxOut)),
		incoming:  make(map[addressBalance]*uint256.Int),
		outgoing:  make(map[addressBalance]*uint256.Int),
	}
	for i := range b.allocated {
		b.allocated[i] = make(map[relics.RelicID]*uint256.Int)
	}
	for _, txIn := range tx.TxIn {
		balances, err := store.TakeOutpointBalances(txIn.PreviousOutPoint)
		if err != nil {
			return nil, err
		}
		if len(balances) == 0 {
			continue
		}
		var sender string
		var haveSender bool
		if prevOut := prevOuts.FetchPrevOutput(txIn.PreviousOutPoint); prevOut != nil {
			sender, haveSender = addressFromScript(prevOut.PkScript)
		}
		_, unsafe := unsafeTxids[txIn.PreviousOutPoint.Hash]
		for _, balance := range balances {
			addTo(b.total, balance.ID, balance.Amount)
			if !unsafe {
				addTo(b.safe, balance.ID, balance.Amount)
			}
			if haveSender {
				key := addressBalance{Address: sender, ID: balance.ID}
				cur, ok := b.incoming[key]
				if !ok {
					cur = new(uint256.Int)
					b.incoming[key] = cur
				}
				cur.Add(cur, balance.Amount)
			}
		}
	}
	return b, nil
}

func addTo(m map[relics.RelicID]*uint256.Int, id relics.RelicID, amount *uint256.Int) {
	cur, ok := m[id]
	if !ok {
		cur = new(uint256.Int)
		m[id] = cur
	}
	cur.Add(cur, amount)
}

func lookup(m map[relics.RelicID]*uint256.Int, id relics.RelicID) *uint256.Int {
	if cur, ok := m[id]; ok {
		return new(uint256.Int).Set(cur)
	}
	return new(uint256.Int)
}

func (b *relicBalances) get(id relics.RelicID) *uint256.Int {
	return lookup(b.total, id)
}

func (b *relicBalances) getSafe(id relics.RelicID) *uint256.Int {
	return lookup(b.safe, id)
}

// remove spends from the total, consuming safe balance last. The caller
// must have checked the balance; shortfalls are invariant violations.
func (b *relicBalances) remove(id relics.RelicID, amount *uint256.Int) {
	total := b.total[id]
	if total == nil || total.Lt(amount) {
		panic("relic ledger: removing more than the total balance")
	}
	total.Sub(total, amount)
	if safe, ok := b.safe[id]; ok && total.Lt(safe) {
		safe.Set(total)
	}
}

// removeSafe spends from both the safe and total balances.
func (b *relicBalances) removeSafe(id relics.RelicID, amount *uint256.Int) {
	total := b.total[id]
	safe := b.safe[id]
	if total == nil || safe == nil || total.Lt(amount) || safe.Lt(amount) {
		panic("relic ledger: removing more than the safe balance")
	}
	total.Sub(total, amount)
	safe.Sub(safe, amount)
}

// add credits the total balance only; newly created tokens are not safe.
func (b *relicBalances) add(id relics.RelicID, amount *uint256.Int) {
	addTo(b.total, id, amount)
}

// addSafe credits both the total and safe balances.
func (b *relicBalances) addSafe(id relics.RelicID, amount *uint256.Int) {
	addTo(b.total, id, amount)
	addTo(b.safe, id, amount)
}

func (b *relicBalances) burn(id relics.RelicID, amount *uint256.Int) {
	addTo(b.burned, id, amount)
}

func (b *relicBalances) burnAll() {
	for id, balance := range b.total {
		b.burn(id, balance)
	}
	b.total = make(map[relics.RelicID]*uint256.Int)
	b.safe = make(map[relics.RelicID]*uint256.Int)
}

func (b *relicBalances) allocate(output int, id relics.RelicID, amount *uint256.Int) {
	if output >= len(b.allocated) {
		panic("relic ledger: allocation to non-existent output")
	}
	if !amount.IsZero() {
		addTo(b.allocated[output], id, amount)
	}
}

func (b *relicBalances) allocateAll(output int) {
	for id, balance := range b.total {
		b.allocate(output, id, balance)
	}
	b.total = make(map[relics.RelicID]*uint256.Int)
	b.safe = make(map[relics.RelicID]*uint256.Int)
}

// allocateTransfers applies the message body. The zero token ID targets the
// token enshrined in this transaction, if any.
func (b *relicBalances) allocateTransfers(transfers []relics.Transfer, enshrined *relics.RelicID, tx *wire.MsgTx) {
	// transfer allocation does not track safe balance, so it is cleared
	b.safe = make(map[relics.RelicID]*uint256.Int)
	for _, transfer := range transfers {
		output := int(transfer.Output)
		if output > len(tx.TxOut) {
			// transfers beyond the output count never leave the parser
			panic("relic ledger: transfer output out of range")
		}
		id := transfer.ID
		if id == (relics.RelicID{}) {
			if enshrined == nil {
				continue
			}
			id = *enshrined
		}
		balance, ok := b.total[id]
		if !ok {
			continue
		}
		amount := transfer.Amount

		if output == len(tx.TxOut) {
			// distribute over all non-OP_RETURN outputs
			var destinations []int
			for vout, txOut := range tx.TxOut {
				if !isOpReturn(txOut.PkScript) {
					destinations = append(destinations, vout)
				}
			}
			if len(destinations) == 0 {
				continue
			}
			if amount.IsZero() {
				// split the remainder; the first outputs get one
				// extra unit each
				count := uint256.NewInt(uint64(len(destinations)))
				share := new(uint256.Int)
				remainder := new(uint256.Int)
				share.DivMod(balance, count, remainder)
				for i, vout := range destinations {
					portion := new(uint256.Int).Set(share)
					if uint64(i) < remainder.Uint64() {
						portion.AddUint64(portion, 1)
					}
					b.allocateFrom(balance, portion, vout, id)
				}
			} else {
				for _, vout := range destinations {
					portion := new(uint256.Int).Set(amount)
					if balance.Lt(portion) {
						portion.Set(balance)
					}
					b.allocateFrom(balance, portion, vout, id)
				}
			}
		} else {
			portion := new(uint256.Int).Set(amount)
			if amount.IsZero() || balance.Lt(portion) {
				portion.Set(balance)
			}
			b.allocateFrom(balance, portion, output, id)
		}
	}
}

func (b *relicBalances) allocateFrom(balance, amount *uint256.Int, output int, id relics.RelicID) {
	if amount.IsZero() {
		return
	}
	balance.Sub(balance, amount)
	addTo(b.allocated[output], id, amount)
}

// finalize writes allocations to outpoint balances, burns allocations to
// OP_RETURN outputs, emits transfer and per-address net flow events, and
// marks the transaction unsafe for the rest of the block. The ledger must
// not be used afterwards.
func (b *relicBalances) finalize(
	tx *wire.MsgTx,
	txid chainhash.Hash,
	store StateStore,
	unsafeTxids map[chainhash.Hash]struct{},
	burned map[relics.RelicID]*uint256.Int,
	emitter *eventEmitter,
	addressFromScript func([]byte) (string, bool),
) error {
	for vout, balances := range b.allocated {
		if len(balances) == 0 {
			continue
		}
		if isOpReturn(tx.TxOut[vout].PkScript) {
			for id, balance := range balances {
				addTo(b.burned, id, balance)
			}
			continue
		}

		sorted := make([]OutpointBalance, 0, len(balances))
		for id, balance := range balances {
			sorted = append(sorted, OutpointBalance{ID: id, Amount: balance})
		}
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].ID.Cmp(sorted[j].ID) < 0
		})

		receiver, haveReceiver := addressFromScript(tx.TxOut[vout].PkScript)
		for _, balance := range sorted {
			if haveReceiver {
				key := addressBalance{Address: receiver, ID: balance.ID}
				cur, ok := b.outgoing[key]
				if !ok {
					cur = new(uint256.Int)
					b.outgoing[key] = cur
				}
				cur.Add(cur, balance.Amount)
			}
			err := emitter.emit(txid, TransferredInfo{
				Relic:  balance.ID,
				Amount: new(uint256.Int).Set(balance.Amount),
				Output: uint32(vout),
			})
			if err != nil {
				return err
			}
		}

		outpoint := wire.OutPoint{Hash: txid, Index: uint32(vout)}
		if err := store.PutOutpointBalances(outpoint, sorted); err != nil {
			return err
		}
	}

	// reconcile incoming with outgoing into net Spent/Received per address
	incomingKeys := sortedAddressKeys(b.incoming)
	for _, key := range incomingKeys {
		spent := b.incoming[key]
		var info EventInfo
		if received, ok := b.outgoing[key]; ok {
			delete(b.outgoing, key)
			if received.Gt(spent) {
				info = ReceivedInfo{
					Relic:   key.ID,
					Amount:  new(uint256.Int).Sub(received, spent),
					Address: key.Address,
				}
			} else {
				info = SpentInfo{
					Relic:   key.ID,
					Amount:  new(uint256.Int).Sub(spent, received),
					Address: key.Address,
				}
			}
		} else {
			info = SpentInfo{
				Relic:   key.ID,
				Amount:  new(uint256.Int).Set(spent),
				Address: key.Address,
			}
		}
		if err := emitter.emit(txid, info); err != nil {
			return err
		}
	}
	for _, key := range sortedAddressKeys(b.outgoing) {
		received := b.outgoing[key]
		err := emitter.emit(txid, ReceivedInfo{
			Relic:   key.ID,
			Amount:  new(uint256.Int).Set(received),
			Address: key.Address,
		})
		if err != nil {
			return err
		}
	}

	// roll transaction burns into the block totals
	for _, id := range sortedIDs(b.burned) {
		amount := b.burned[id]
		addTo(burned, id, amount)
		err := emitter.emit(txid, BurnedInfo{
			Relic:  id,
			Amount: new(uint256.Int).Set(amount),
		})
		if err != nil {
			return err
		}
	}

	// sandwich protection: outputs of this transaction are unsafe for the
	// remainder of the block
	unsafeTxids[txid] = struct{}{}
	return nil
}

func sortedAddressKeys(m map[addressBalance]*uint256.Int) []addressBalance {
	keys := make([]addressBalance, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Address != keys[j].Address {
			return keys[i].Address < keys[j].Address
		}
		return keys[i].ID.Cmp(keys[j].ID) < 0
	})
	return keys
}

func sortedIDs(m map[relics.RelicID]*uint256.Int) []relics.RelicID {
	ids := make([]relics.RelicID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Cmp(ids[j]) < 0
	})
	return ids
}

func isOpReturn(script []byte) bool {
	return len(script) > 0 && script[0] == txscript.OP_RETURN
}
