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
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/dgraph-io/badger/v4"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/index"
	"github.com/relicsprotocol/relicd/internal/relics"
)

func entryKey(id relics.RelicID) []byte {
	return []byte(fmt.Sprintf("entry_%d_%d", id.Block, id.Tx))
}

func relicNameKey(name relics.Relic) []byte {
	return []byte(fmt.Sprintf("relic_%s", hex.EncodeToString(name.N.Bytes())))
}

func txRelicKey(txid chainhash.Hash) []byte {
	return []byte(fmt.Sprintf("txrelic_%s", txid))
}

func sealingKey(name relics.Relic) []byte {
	return []byte(fmt.Sprintf("seal_%s", hex.EncodeToString(name.N.Bytes())))
}

func sealingSequenceKey(sequence uint32) []byte {
	return []byte(fmt.Sprintf("sealseq_%d", sequence))
}

func outpointKey(outpoint wire.OutPoint) []byte {
	return []byte(fmt.Sprintf("outpoint_%s.%d", outpoint.Hash, outpoint.Index))
}

func claimableKey(owner index.RelicOwner) []byte {
	return []byte(fmt.Sprintf("claim_%s", hex.EncodeToString(owner[:])))
}

func eventKey(height, eventIndex uint32) []byte {
	return []byte(fmt.Sprintf("event_%010d_%010d", height, eventIndex))
}

func eventTxKey(txid chainhash.Hash, height, eventIndex uint32) []byte {
	return []byte(fmt.Sprintf("eventtx_%s_%010d_%010d", txid, height, eventIndex))
}

func eventRelicKey(relicKey []byte, height, eventIndex uint32) []byte {
	return []byte(fmt.Sprintf("eventrelic_%s_%010d_%010d", relicKey, height, eventIndex))
}

const statRelicsKey = "stat_relics"

// BlockTx wraps a badger transaction for one block of state mutations. It
// implements index.StateStore; Commit makes all of the block's effects
// visible atomically.
type BlockTx struct {
	txn *badger.Txn
}

// BeginBlock opens a read-write transaction covering one block.
func (s *Storage) BeginBlock() *BlockTx {
	return &BlockTx{txn: s.db.NewTransaction(true)}
}

func (b *BlockTx) Commit() error {
	return b.txn.Commit()
}

func (b *BlockTx) Discard() {
	b.txn.Discard()
}

func (b *BlockTx) get(key []byte) ([]byte, bool, error) {
	item, err := b.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (b *BlockTx) RelicEntry(id relics.RelicID) (*index.RelicEntry, error) {
	value, found, err := b.get(entryKey(id))
	if err != nil || !found {
		return nil, err
	}
	return decodeEntry(value)
}

func (b *BlockTx) PutRelicEntry(id relics.RelicID, entry *index.RelicEntry) error {
	value, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	return b.txn.Set(entryKey(id), value)
}

func (b *BlockTx) RelicIDByName(name relics.Relic) (relics.RelicID, bool, error) {
	value, found, err := b.get(relicNameKey(name))
	if err != nil || !found {
		return relics.RelicID{}, false, err
	}
	id, err := relics.ParseRelicID(string(value))
	if err != nil {
		return relics.RelicID{}, false, err
	}
	return id, true, nil
}

func (b *BlockTx) PutRelicIDByName(name relics.Relic, id relics.RelicID) error {
	return b.txn.Set(relicNameKey(name), []byte(id.String()))
}

func (b *BlockTx) PutRelicByTransaction(txid chainhash.Hash, name relics.Relic) error {
	return b.txn.Set(txRelicKey(txid), name.N.Bytes())
}

func (b *BlockTx) RelicCount() (uint64, error) {
	value, found, err := b.get([]byte(statRelicsKey))
	if err != nil || !found {
		return 0, err
	}
	return binary.BigEndian.Uint64(value), nil
}

func (b *BlockTx) SetRelicCount(count uint64) error {
	var value [8]byte
	binary.BigEndian.PutUint64(value[:], count)
	return b.txn.Set([]byte(statRelicsKey), value[:])
}

func (b *BlockTx) SealingByRelic(name relics.Relic) (uint32, bool, error) {
	value, found, err := b.get(sealingKey(name))
	if err != nil || !found {
		return 0, false, err
	}
	return binary.BigEndian.Uint32(value), true, nil
}

func (b *BlockTx) SealingBySequence(sequence uint32) (relics.SpacedRelic, bool, error) {
	value, found, err := b.get(sealingSequenceKey(sequence))
	if err != nil || !found {
		return relics.SpacedRelic{}, false, err
	}
	spaced, err := relics.ParseSpacedRelic(string(value))
	if err != nil {
		return relics.SpacedRelic{}, false, err
	}
	return spaced, true, nil
}

func (b *BlockTx) PutSealing(spaced relics.SpacedRelic, sequence uint32) error {
	var value [4]byte
	binary.BigEndian.PutUint32(value[:], sequence)
	if err := b.txn.Set(sealingKey(spaced.Relic), value[:]); err != nil {
		return err
	}
	return b.txn.Set(sealingSequenceKey(sequence), []byte(spaced.String()))
}

func (b *BlockTx) TakeOutpointBalances(outpoint wire.OutPoint) ([]index.OutpointBalance, error) {
	key := outpointKey(outpoint)
	value, found, err := b.get(key)
	if err != nil || !found {
		return nil, err
	}
	if err := b.txn.Delete(key); err != nil {
		return nil, err
	}
	return index.DecodeOutpointBalances(value)
}

func (b *BlockTx) PutOutpointBalances(outpoint wire.OutPoint, balances []index.OutpointBalance) error {
	return b.txn.Set(outpointKey(outpoint), index.EncodeOutpointBalances(balances, nil))
}

func (b *BlockTx) TakeClaimable(owner index.RelicOwner) (*uint256.Int, bool, error) {
	key := claimableKey(owner)
	value, found, err := b.get(key)
	if err != nil || !found {
		return nil, false, err
	}
	if err := b.txn.Delete(key); err != nil {
		return nil, false, err
	}
	return amountFromBytes(value), true, nil
}

func (b *BlockTx) PutClaimable(owner index.RelicOwner, amount *uint256.Int) error {
	return b.txn.Set(claimableKey(owner), amountBytes(amount))
}

func (b *BlockTx) AppendEvent(event index.Event) error {
	data, hasRelic, relicKey, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := b.txn.Set(eventKey(event.Height, event.EventIndex), data); err != nil {
		return err
	}
	if err := b.txn.Set(eventTxKey(event.Txid, event.Height, event.EventIndex), data); err != nil {
		return err
	}
	if hasRelic {
		return b.txn.Set(eventRelicKey(relicKey, event.Height, event.EventIndex), data)
	}
	return nil
}

func (s *Storage) eventsByPrefix(prefix []byte) ([]index.Event, error) {
	var events []index.Event
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				event, err := decodeEvent(v)
				if err != nil {
					return err
				}
				events = append(events, event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return events, err
}

// BlockEvents returns the full journal of a block, in event order.
func (s *Storage) BlockEvents(height uint32) ([]index.Event, error) {
	return s.eventsByPrefix([]byte(fmt.Sprintf("event_%010d_", height)))
}

// TransactionEvents returns all events of a transaction.
func (s *Storage) TransactionEvents(txid chainhash.Hash) ([]index.Event, error) {
	return s.eventsByPrefix([]byte(fmt.Sprintf("eventtx_%s_", txid)))
}

// RelicEvents returns the relic history of a token.
func (s *Storage) RelicEvents(id relics.RelicID) ([]index.Event, error) {
	return s.eventsByPrefix([]byte(fmt.Sprintf("eventrelic_%d:%d_", id.Block, id.Tx)))
}
