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
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/index"
	"github.com/relicsprotocol/relicd/internal/relics"
)

// Persisted records use CBOR with integer keys for a stable, compact
// layout. Amounts are stored as minimal big-endian bytes.

type priceRecord struct {
	Kind  uint8  `cbor:"0,keyasint"`
	Fixed []byte `cbor:"1,keyasint,omitempty"`
	A     []byte `cbor:"2,keyasint,omitempty"`
	B     []byte `cbor:"3,keyasint,omitempty"`
}

type termsRecord struct {
	Amount     []byte       `cbor:"0,keyasint,omitempty"`
	BlockCap   *uint32      `cbor:"1,keyasint,omitempty"`
	Cap        []byte       `cbor:"2,keyasint,omitempty"`
	MaxUnmints *uint32      `cbor:"3,keyasint,omitempty"`
	Price      *priceRecord `cbor:"4,keyasint,omitempty"`
	Seed       []byte       `cbor:"5,keyasint,omitempty"`
	TxCap      *uint8       `cbor:"6,keyasint,omitempty"`
}

type boostRecord struct {
	RareChance             *uint32 `cbor:"0,keyasint,omitempty"`
	RareMultiplierCap      *uint16 `cbor:"1,keyasint,omitempty"`
	UltraRareChance        *uint32 `cbor:"2,keyasint,omitempty"`
	UltraRareMultiplierCap *uint16 `cbor:"3,keyasint,omitempty"`
}

type poolRecord struct {
	BaseSupply  []byte `cbor:"0,keyasint"`
	QuoteSupply []byte `cbor:"1,keyasint"`
	FeeBps      uint16 `cbor:"2,keyasint"`
	Subsidy     []byte `cbor:"3,keyasint"`
}

type entryRecord struct {
	Block         uint64       `cbor:"0,keyasint"`
	Enshrining    []byte       `cbor:"1,keyasint"`
	Fee           uint16       `cbor:"2,keyasint"`
	Number        uint64       `cbor:"3,keyasint"`
	Relic         []byte       `cbor:"4,keyasint"`
	Spacers       uint32       `cbor:"5,keyasint"`
	Symbol        *int32       `cbor:"6,keyasint,omitempty"`
	OwnerSequence *uint32      `cbor:"7,keyasint,omitempty"`
	Boost         *boostRecord `cbor:"8,keyasint,omitempty"`
	Terms         *termsRecord `cbor:"9,keyasint,omitempty"`
	Burned        []byte       `cbor:"10,keyasint"`
	Mints         []byte       `cbor:"11,keyasint"`
	Unmints       []byte       `cbor:"12,keyasint"`
	Pool          *poolRecord  `cbor:"13,keyasint,omitempty"`
	Timestamp     uint64       `cbor:"14,keyasint"`
}

func amountBytes(z *uint256.Int) []byte {
	if z == nil {
		return nil
	}
	return z.Bytes()
}

func amountFromBytes(b []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(b)
}

func optAmountFromBytes(b []byte) *uint256.Int {
	if b == nil {
		return nil
	}
	return amountFromBytes(b)
}

func priceToRecord(p *relics.PriceModel) *priceRecord {
	if p == nil {
		return nil
	}
	if p.IsFixed() {
		return &priceRecord{Kind: 1, Fixed: amountBytes(p.Fixed)}
	}
	return &priceRecord{Kind: 2, A: amountBytes(p.A), B: amountBytes(p.B)}
}

func priceFromRecord(r *priceRecord) *relics.PriceModel {
	if r == nil {
		return nil
	}
	if r.Kind == 1 {
		return relics.FixedPrice(amountFromBytes(r.Fixed))
	}
	return relics.FormulaPrice(amountFromBytes(r.A), amountFromBytes(r.B))
}

func termsToRecord(t *relics.MintTerms) *termsRecord {
	if t == nil {
		return nil
	}
	return &termsRecord{
		Amount:     amountBytes(t.Amount),
		BlockCap:   t.BlockCap,
		Cap:        amountBytes(t.Cap),
		MaxUnmints: t.MaxUnmints,
		Price:      priceToRecord(t.Price),
		Seed:       amountBytes(t.Seed),
		TxCap:      t.TxCap,
	}
}

func termsFromRecord(r *termsRecord) *relics.MintTerms {
	if r == nil {
		return nil
	}
	return &relics.MintTerms{
		Amount:     optAmountFromBytes(r.Amount),
		BlockCap:   r.BlockCap,
		Cap:        optAmountFromBytes(r.Cap),
		MaxUnmints: r.MaxUnmints,
		Price:      priceFromRecord(r.Price),
		Seed:       optAmountFromBytes(r.Seed),
		TxCap:      r.TxCap,
	}
}

func boostToRecord(b *relics.BoostTerms) *boostRecord {
	if b == nil {
		return nil
	}
	return &boostRecord{
		RareChance:             b.RareChance,
		RareMultiplierCap:      b.RareMultiplierCap,
		UltraRareChance:        b.UltraRareChance,
		UltraRareMultiplierCap: b.UltraRareMultiplierCap,
	}
}

func boostFromRecord(r *boostRecord) *relics.BoostTerms {
	if r == nil {
		return nil
	}
	return &relics.BoostTerms{
		RareChance:             r.RareChance,
		RareMultiplierCap:      r.RareMultiplierCap,
		UltraRareChance:        r.UltraRareChance,
		UltraRareMultiplierCap: r.UltraRareMultiplierCap,
	}
}

func encodeEntry(entry *index.RelicEntry) ([]byte, error) {
	record := entryRecord{
		Block:         entry.Block,
		Enshrining:    entry.Enshrining[:],
		Fee:           entry.Fee,
		Number:        entry.Number,
		Relic:         entry.SpacedRelic.Relic.N.Bytes(),
		Spacers:       entry.SpacedRelic.Spacers,
		OwnerSequence: entry.OwnerSequence,
		Boost:         boostToRecord(entry.BoostTerms),
		Terms:         termsToRecord(entry.MintTerms),
		Burned:        amountBytes(entry.State.Burned),
		Mints:         amountBytes(entry.State.Mints),
		Unmints:       amountBytes(entry.State.Unmints),
		Timestamp:     entry.Timestamp,
	}
	if entry.Symbol != nil {
		symbol := int32(*entry.Symbol)
		record.Symbol = &symbol
	}
	if entry.Pool != nil {
		record.Pool = &poolRecord{
			BaseSupply:  amountBytes(entry.Pool.BaseSupply),
			QuoteSupply: amountBytes(entry.Pool.QuoteSupply),
			FeeBps:      entry.Pool.FeeBps,
			Subsidy:     amountBytes(entry.Pool.Subsidy),
		}
	}
	return cbor.Marshal(record)
}

func decodeEntry(data []byte) (*index.RelicEntry, error) {
	var record entryRecord
	if err := cbor.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("error decoding relic entry: %s", err)
	}
	entry := index.NewRelicEntry()
	entry.Block = record.Block
	entry.Fee = record.Fee
	entry.Number = record.Number
	entry.SpacedRelic = relics.NewSpacedRelic(
		relics.Relic{N: *amountFromBytes(record.Relic)},
		record.Spacers,
	)
	entry.OwnerSequence = record.OwnerSequence
	entry.BoostTerms = boostFromRecord(record.Boost)
	entry.MintTerms = termsFromRecord(record.Terms)
	entry.State.Burned = amountFromBytes(record.Burned)
	entry.State.Mints = amountFromBytes(record.Mints)
	entry.State.Unmints = amountFromBytes(record.Unmints)
	entry.Timestamp = record.Timestamp
	if len(record.Enshrining) == chainhash.HashSize {
		copy(entry.Enshrining[:], record.Enshrining)
	}
	if record.Symbol != nil {
		symbol := rune(*record.Symbol)
		entry.Symbol = &symbol
	}
	if record.Pool != nil {
		entry.Pool = relics.NewPool(
			amountFromBytes(record.Pool.BaseSupply),
			amountFromBytes(record.Pool.QuoteSupply),
			record.Pool.FeeBps,
			amountFromBytes(record.Pool.Subsidy),
		)
	}
	return entry, nil
}

// Event kinds in the persisted journal.
const (
	eventKindSealed uint8 = iota + 1
	eventKindEnshrined
	eventKindMinted
	eventKindMultiMinted
	eventKindBurned
	eventKindTransferred
	eventKindSpent
	eventKindReceived
	eventKindSwapped
	eventKindClaimed
	eventKindError
)

const (
	eventFlagUnmint uint8 = 1 << iota
	eventFlagSellOrder
	eventFlagExactInput
)

type eventRecord struct {
	Kind        uint8  `cbor:"0,keyasint"`
	Height      uint32 `cbor:"1,keyasint"`
	EventIndex  uint32 `cbor:"2,keyasint"`
	Txid        []byte `cbor:"3,keyasint"`
	RelicBlock  uint64 `cbor:"4,keyasint,omitempty"`
	RelicTx     uint32 `cbor:"5,keyasint,omitempty"`
	Amount      []byte `cbor:"6,keyasint,omitempty"`
	Quote       []byte `cbor:"7,keyasint,omitempty"`
	Fee         []byte `cbor:"8,keyasint,omitempty"`
	Output      uint32 `cbor:"9,keyasint,omitempty"`
	Address     string `cbor:"10,keyasint,omitempty"`
	Sequence    uint32 `cbor:"11,keyasint,omitempty"`
	Inscription []byte `cbor:"12,keyasint,omitempty"`
	InscriptionIdx uint32 `cbor:"13,keyasint,omitempty"`
	Ticker         string `cbor:"14,keyasint,omitempty"`
	Multiplier  uint32 `cbor:"15,keyasint,omitempty"`
	Flags       uint8  `cbor:"16,keyasint,omitempty"`
	Count       uint8  `cbor:"17,keyasint,omitempty"`
	Operation   uint8  `cbor:"18,keyasint,omitempty"`
	ErrorKind   uint8  `cbor:"19,keyasint,omitempty"`
	Message     string `cbor:"20,keyasint,omitempty"`
}

func encodeEvent(event index.Event) ([]byte, bool, []byte, error) {
	record := eventRecord{
		Height:     event.Height,
		EventIndex: event.EventIndex,
		Txid:       event.Txid[:],
	}
	if id, ok := event.Info.RelicID(); ok {
		record.RelicBlock = id.Block
		record.RelicTx = id.Tx
	}
	switch info := event.Info.(type) {
	case index.SealedInfo:
		record.Kind = eventKindSealed
		record.Ticker = info.SpacedRelic.String()
		record.Sequence = info.SequenceNumber
		record.Inscription = info.InscriptionID.Txid[:]
		record.InscriptionIdx = info.InscriptionID.Index
	case index.EnshrinedInfo:
		record.Kind = eventKindEnshrined
		record.Inscription = info.InscriptionID.Txid[:]
		record.InscriptionIdx = info.InscriptionID.Index
	case index.MintedInfo:
		record.Kind = eventKindMinted
		record.Amount = amountBytes(info.Amount)
		record.Multiplier = info.Multiplier
		if info.IsUnmint {
			record.Flags |= eventFlagUnmint
		}
	case index.MultiMintedInfo:
		record.Kind = eventKindMultiMinted
		record.Amount = amountBytes(info.Amount)
		record.Quote = amountBytes(info.BaseLimit)
		record.Count = info.NumMints
		if info.IsUnmint {
			record.Flags |= eventFlagUnmint
		}
	case index.BurnedInfo:
		record.Kind = eventKindBurned
		record.Amount = amountBytes(info.Amount)
	case index.TransferredInfo:
		record.Kind = eventKindTransferred
		record.Amount = amountBytes(info.Amount)
		record.Output = info.Output
	case index.SpentInfo:
		record.Kind = eventKindSpent
		record.Amount = amountBytes(info.Amount)
		record.Address = info.Address
	case index.ReceivedInfo:
		record.Kind = eventKindReceived
		record.Amount = amountBytes(info.Amount)
		record.Address = info.Address
	case index.SwappedInfo:
		record.Kind = eventKindSwapped
		record.Amount = amountBytes(info.BaseAmount)
		record.Quote = amountBytes(info.QuoteAmount)
		record.Fee = amountBytes(info.Fee)
		if info.IsSellOrder {
			record.Flags |= eventFlagSellOrder
		}
		if info.IsExactInput {
			record.Flags |= eventFlagExactInput
		}
	case index.ClaimedInfo:
		record.Kind = eventKindClaimed
		record.Amount = amountBytes(info.Amount)
	case index.ErrorInfo:
		record.Kind = eventKindError
		record.Operation = uint8(info.Operation)
		record.ErrorKind = uint8(info.Err.Kind)
		record.Message = info.Err.Error()
	default:
		return nil, false, nil, fmt.Errorf("unknown event info type %T", event.Info)
	}
	data, err := cbor.Marshal(record)
	if err != nil {
		return nil, false, nil, err
	}
	var relicKey []byte
	if id, ok := event.Info.RelicID(); ok && event.Info.RelicHistory() {
		relicKey = []byte(fmt.Sprintf("%d:%d", id.Block, id.Tx))
	}
	return data, relicKey != nil, relicKey, nil
}

func decodeEvent(data []byte) (index.Event, error) {
	var record eventRecord
	if err := cbor.Unmarshal(data, &record); err != nil {
		return index.Event{}, fmt.Errorf("error decoding event: %s", err)
	}
	event := index.Event{
		Height:     record.Height,
		EventIndex: record.EventIndex,
	}
	copy(event.Txid[:], record.Txid)
	id := relics.RelicID{Block: record.RelicBlock, Tx: record.RelicTx}
	var inscription index.InscriptionID
	if len(record.Inscription) == chainhash.HashSize {
		copy(inscription.Txid[:], record.Inscription)
		inscription.Index = record.InscriptionIdx
	}
	switch record.Kind {
	case eventKindSealed:
		spaced, err := relics.ParseSpacedRelic(record.Ticker)
		if err != nil {
			return index.Event{}, err
		}
		event.Info = index.SealedInfo{
			SpacedRelic:    spaced,
			SequenceNumber: record.Sequence,
			InscriptionID:  inscription,
		}
	case eventKindEnshrined:
		event.Info = index.EnshrinedInfo{Relic: id, InscriptionID: inscription}
	case eventKindMinted:
		event.Info = index.MintedInfo{
			Relic:      id,
			Amount:     amountFromBytes(record.Amount),
			Multiplier: record.Multiplier,
			IsUnmint:   record.Flags&eventFlagUnmint != 0,
		}
	case eventKindMultiMinted:
		event.Info = index.MultiMintedInfo{
			Relic:     id,
			Amount:    amountFromBytes(record.Amount),
			NumMints:  record.Count,
			BaseLimit: amountFromBytes(record.Quote),
			IsUnmint:  record.Flags&eventFlagUnmint != 0,
		}
	case eventKindBurned:
		event.Info = index.BurnedInfo{Relic: id, Amount: amountFromBytes(record.Amount)}
	case eventKindTransferred:
		event.Info = index.TransferredInfo{
			Relic:  id,
			Amount: amountFromBytes(record.Amount),
			Output: record.Output,
		}
	case eventKindSpent:
		event.Info = index.SpentInfo{
			Relic:   id,
			Amount:  amountFromBytes(record.Amount),
			Address: record.Address,
		}
	case eventKindReceived:
		event.Info = index.ReceivedInfo{
			Relic:   id,
			Amount:  amountFromBytes(record.Amount),
			Address: record.Address,
		}
	case eventKindSwapped:
		event.Info = index.SwappedInfo{
			Relic:        id,
			BaseAmount:   amountFromBytes(record.Amount),
			QuoteAmount:  amountFromBytes(record.Quote),
			Fee:          amountFromBytes(record.Fee),
			IsSellOrder:  record.Flags&eventFlagSellOrder != 0,
			IsExactInput: record.Flags&eventFlagExactInput != 0,
		}
	case eventKindClaimed:
		event.Info = index.ClaimedInfo{Amount: amountFromBytes(record.Amount)}
	case eventKindError:
		event.Info = index.ErrorInfo{
			Operation: index.RelicOperation(record.Operation),
			Err:       &index.RelicError{Kind: index.RelicErrorKind(record.ErrorKind)},
		}
	default:
		return index.Event{}, fmt.Errorf("unknown event kind %d", record.Kind)
	}
	return event, nil
}
