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

import (
	"sort"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
)

const (
	// MagicOpcode marks a protocol-carrying output: the push-number opcode
	// right after OP_RETURN. Distinct from the value used by runes.
	MagicOpcode = txscript.OP_15

	// CommitConfirmations is the minimum depth of a sealing-inscription
	// commitment at reveal time.
	CommitConfirmations = 6

	// maxScriptElementSize caps a single data push.
	maxScriptElementSize = 520
)

// Keepsake is a validly decoded protocol message.
type Keepsake struct {
	// allocation of tokens to outputs
	Transfers []Transfer
	// output to receive unallocated tokens; the first non-OP_RETURN
	// output when unset
	Pointer *uint32
	// if set, tokens claimable by the script of the given output are
	// allocated to it
	Claim *uint32
	// seal a ticker
	Sealing bool
	// enshrine a previously sealed ticker
	Enshrining *Enshrining
	// mint or unmint a token
	Mint *MultiMint
	// execute a token swap
	Swap *Swap
}

// Decipher decodes the protocol message carried by a transaction. It
// returns nil if the transaction carries no protocol payload or if the
// multi-mint flag is set without its count, base limit and relic fields, a
// *Cenotaph if the payload is malformed, and a *Keepsake otherwise.
func Decipher(tx *wire.MsgTx) Artifact {
	payload, flaw, found := extractPayload(tx)
	if !found {
		return nil
	}
	if flaw != FlawNone {
		return &Cenotaph{Flaw: flaw}
	}

	integers, err := payloadIntegers(payload)
	if err != nil {
		return &Cenotaph{Flaw: FlawVarint}
	}

	msg := messageFromIntegers(tx, integers)
	fields := msg.fields
	var slot flawSlot
	slot.record(msg.flaw)

	flags := new(uint256.Int)
	if value, ok := tagFlags.takeValue(fields); ok {
		flags = value
	}

	takeOutput := func(t tag) *uint32 {
		var out *uint32
		t.take(fields, 1, func(values []uint256.Int) bool {
			if !values[0].IsUint64() || values[0].Uint64() >= uint64(len(tx.TxOut)) {
				return false
			}
			vout := uint32(values[0].Uint64())
			out = &vout
			return true
		})
		return out
	}

	sealing := flagSealing.take(flags)

	var enshrining *Enshrining
	if flagEnshrining.take(flags) {
		enshrining = &Enshrining{}
		if flagBoostTerms.take(flags) {
			boost := &BoostTerms{}
			if v, ok := tagRareChance.takeUint32(fields); ok {
				boost.RareChance = &v
			}
			if v, ok := tagRareMultiplierCap.takeUint16(fields); ok {
				boost.RareMultiplierCap = &v
			}
			if v, ok := tagUltraRareChance.takeUint32(fields); ok {
				boost.UltraRareChance = &v
			}
			if v, ok := tagUltraRareMultiplierCap.takeUint16(fields); ok {
				boost.UltraRareMultiplierCap = &v
			}
			enshrining.BoostTerms = boost
		}
		if v, ok := tagFee.takeUint16(fields); ok {
			enshrining.Fee = &v
		}
		if v, ok := tagSymbol.takeChar(fields); ok {
			enshrining.Symbol = &v
		}
		if flagMintTerms.take(flags) {
			terms := &MintTerms{}
			if v, ok := tagAmount.takeValue(fields); ok {
				terms.Amount = v
			}
			if v, ok := tagBlockCap.takeUint32(fields); ok {
				terms.BlockCap = &v
			}
			if v, ok := tagCap.takeValue(fields); ok {
				terms.Cap = v
			}
			if v, ok := tagTxCap.takeUint8(fields); ok {
				terms.TxCap = &v
			}
			if v, ok := tagMaxUnmints.takeUint32(fields); ok {
				terms.MaxUnmints = &v
			}
			if v, ok := tagPrice.takeValue(fields); ok {
				terms.Price = FixedPrice(v)
			} else {
				a, okA := tagPriceFormulaA.takeValue(fields)
				b, okB := tagPriceFormulaB.takeValue(fields)
				if okA && okB {
					terms.Price = FormulaPrice(a, b)
				}
			}
			if v, ok := tagSeed.takeNonZero(fields); ok {
				terms.Seed = v
			}
			enshrining.MintTerms = terms
		}
		if v, ok := tagSubsidy.takeValue(fields); ok {
			enshrining.Subsidy = v
		}
	}

	var multiMint *MultiMint
	if flagMultiMint.take(flags) {
		isUnmint := false
		if v, ok := tagMultiMintIsUnmint.takeValue(fields); ok {
			isUnmint = !v.IsZero()
		}
		count, ok := tagMultiMintCount.takeUint8(fields)
		if !ok {
			return nil
		}
		baseLimit, ok := tagMultiMintBaseLimit.takeValue(fields)
		if !ok {
			return nil
		}
		relic, ok := tagMultiMintRelic.takeRelicID(fields)
		if !ok {
			return nil
		}
		multiMint = &MultiMint{
			Count:     count,
			BaseLimit: baseLimit,
			Relic:     relic,
			IsUnmint:  isUnmint,
		}
	}

	var swap *Swap
	if flagSwap.take(flags) {
		swap = &Swap{IsExactInput: flagSwapExactIn.take(flags)}
		if id, ok := tagSwapInput.takeRelicID(fields); ok {
			swap.Input = &id
		}
		if id, ok := tagSwapOutput.takeRelicID(fields); ok {
			swap.Output = &id
		}
		if v, ok := tagSwapInputAmount.takeNonZero(fields); ok {
			swap.InputAmount = v
		}
		if v, ok := tagSwapOutputAmount.takeNonZero(fields); ok {
			swap.OutputAmount = v
		}
	}

	pointer := takeOutput(tagPointer)
	claim := takeOutput(tagClaim)

	if enshrining != nil {
		if flaw := enshrining.Validate(); flaw != FlawNone {
			slot.record(flaw)
		}
	}

	// the base token must not be multi minted
	if multiMint != nil && multiMint.Relic == BaseTokenID {
		slot.record(FlawInvalidBaseTokenMint)
	}

	// make sure to not swap from and to the same token
	if swap != nil && swap.InputID() == swap.OutputID() {
		slot.record(FlawInvalidSwap)
	}

	if !flags.IsZero() {
		slot.record(FlawUnrecognizedFlag)
	}

	if fields.hasEvenTag() {
		slot.record(FlawUnrecognizedEvenTag)
	}

	if slot.some() {
		return &Cenotaph{Flaw: slot.flaw}
	}

	return &Keepsake{
		Transfers:  msg.transfers,
		Pointer:    pointer,
		Claim:      claim,
		Sealing:    sealing,
		Enshrining: enshrining,
		Mint:       multiMint,
		Swap:       swap,
	}
}

// message is the intermediate decode of the integer stream: tag fields in
// FIFO order plus the transfer body.
type message struct {
	flaw      Flaw
	transfers []Transfer
	fields    fieldMap
}

func messageFromIntegers(tx *wire.MsgTx, integers []uint256.Int) message {
	msg := message{fields: make(fieldMap)}
	var slot flawSlot

	for i := 0; i < len(integers); i += 2 {
		t := integers[i]
		if t.IsZero() {
			// the remainder of the stream is the transfer body
			var id RelicID
			body := integers[i+1:]
			for j := 0; j < len(body); j += 4 {
				if len(body)-j < 4 {
					slot.record(FlawTrailingIntegers)
					break
				}
				next, ok := id.Next(&body[j], &body[j+1])
				if !ok {
					slot.record(FlawTransferRelicID)
					break
				}
				transfer, ok := transferFromIntegers(tx, next, &body[j+2], &body[j+3])
				if !ok {
					slot.record(FlawTransferOutput)
					break
				}
				id = next
				msg.transfers = append(msg.transfers, transfer)
			}
			break
		}
		if i+1 >= len(integers) {
			slot.record(FlawTruncatedField)
			break
		}
		msg.fields.push(t, integers[i+1])
	}

	msg.flaw = slot.flaw
	return msg
}

// extractPayload scans the transaction outputs for the first script whose
// leading opcodes are OP_RETURN followed by the protocol magic and returns
// the concatenated data pushes that follow.
func extractPayload(tx *wire.MsgTx) ([]byte, Flaw, bool) {
	for _, txOut := range tx.TxOut {
		script := txOut.PkScript
		if len(script) < 2 || script[0] != txscript.OP_RETURN || script[1] != MagicOpcode {
			continue
		}
		var payload []byte
		tokenizer := txscript.MakeScriptTokenizer(0, script[2:])
		for tokenizer.Next() {
			if tokenizer.Opcode() > txscript.OP_PUSHDATA4 {
				return nil, FlawOpcode, true
			}
			payload = append(payload, tokenizer.Data()...)
		}
		if tokenizer.Err() != nil {
			return nil, FlawInvalidScript, true
		}
		return payload, FlawNone, true
	}
	return nil, FlawNone, false
}

func payloadIntegers(payload []byte) ([]uint256.Int, error) {
	var integers []uint256.Int
	i := 0
	for i < len(payload) {
		integer, length, err := DecodeVarint(payload[i:])
		if err != nil {
			return nil, err
		}
		integers = append(integers, *integer)
		i += length
	}
	return integers, nil
}

// Encipher renders the message as an OP_RETURN locking script.
func (k *Keepsake) Encipher() ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_RETURN)
	builder.AddOp(MagicOpcode)
	payload := k.encipherPayload()
	for len(payload) > 0 {
		chunk := payload
		if len(chunk) > maxScriptElementSize {
			chunk = chunk[:maxScriptElementSize]
		}
		builder.AddData(chunk)
		payload = payload[len(chunk):]
	}
	return builder.Script()
}

func (k *Keepsake) encipherPayload() []byte {
	var payload []byte
	flags := new(uint256.Int)

	if k.Sealing {
		flagSealing.set(flags)
	}

	if e := k.Enshrining; e != nil {
		flagEnshrining.set(flags)
		if e.Symbol != nil {
			payload = tagSymbol.encodeUint64(payload, uint64(*e.Symbol))
		}
		if e.Fee != nil {
			payload = tagFee.encodeUint64(payload, uint64(*e.Fee))
		}
		if boost := e.BoostTerms; boost != nil {
			flagBoostTerms.set(flags)
			if boost.RareChance != nil {
				payload = tagRareChance.encodeUint64(payload, uint64(*boost.RareChance))
			}
			if boost.RareMultiplierCap != nil {
				payload = tagRareMultiplierCap.encodeUint64(payload, uint64(*boost.RareMultiplierCap))
			}
			if boost.UltraRareChance != nil {
				payload = tagUltraRareChance.encodeUint64(payload, uint64(*boost.UltraRareChance))
			}
			if boost.UltraRareMultiplierCap != nil {
				payload = tagUltraRareMultiplierCap.encodeUint64(payload, uint64(*boost.UltraRareMultiplierCap))
			}
		}
		if terms := e.MintTerms; terms != nil {
			flagMintTerms.set(flags)
			if terms.Amount != nil {
				payload = tagAmount.encode(payload, terms.Amount)
			}
			if terms.BlockCap != nil {
				payload = tagBlockCap.encodeUint64(payload, uint64(*terms.BlockCap))
			}
			if terms.TxCap != nil {
				payload = tagTxCap.encodeUint64(payload, uint64(*terms.TxCap))
			}
			if terms.Cap != nil {
				payload = tagCap.encode(payload, terms.Cap)
			}
			if price := terms.Price; price != nil {
				if price.IsFixed() {
					payload = tagPrice.encode(payload, price.Fixed)
				} else {
					payload = tagPriceFormulaA.encode(payload, price.A)
					payload = tagPriceFormulaB.encode(payload, price.B)
				}
			}
			if terms.Seed != nil {
				payload = tagSeed.encode(payload, terms.Seed)
			}
			if terms.MaxUnmints != nil {
				payload = tagMaxUnmints.encodeUint64(payload, uint64(*terms.MaxUnmints))
			}
		}
		if e.Subsidy != nil {
			payload = tagSubsidy.encode(payload, e.Subsidy)
		}
	}

	if multi := k.Mint; multi != nil {
		flagMultiMint.set(flags)
		if multi.IsUnmint {
			payload = tagMultiMintIsUnmint.encodeUint64(payload, 1)
		}
		payload = tagMultiMintCount.encodeUint64(payload, uint64(multi.Count))
		payload = tagMultiMintBaseLimit.encode(payload, multi.BaseLimit)
		payload = tagMultiMintRelic.encodeUint64(payload, multi.Relic.Block)
		payload = tagMultiMintRelic.encodeUint64(payload, uint64(multi.Relic.Tx))
	}

	if swap := k.Swap; swap != nil {
		flagSwap.set(flags)
		if swap.IsExactInput {
			flagSwapExactIn.set(flags)
		}
		if swap.Input != nil {
			payload = tagSwapInput.encodeUint64(payload, swap.Input.Block)
			payload = tagSwapInput.encodeUint64(payload, uint64(swap.Input.Tx))
		}
		if swap.Output != nil {
			payload = tagSwapOutput.encodeUint64(payload, swap.Output.Block)
			payload = tagSwapOutput.encodeUint64(payload, uint64(swap.Output.Tx))
		}
		if swap.InputAmount != nil {
			payload = tagSwapInputAmount.encode(payload, swap.InputAmount)
		}
		if swap.OutputAmount != nil {
			payload = tagSwapOutputAmount.encode(payload, swap.OutputAmount)
		}
	}

	if !flags.IsZero() {
		payload = tagFlags.encode(payload, flags)
	}

	if k.Pointer != nil {
		payload = tagPointer.encodeUint64(payload, uint64(*k.Pointer))
	}
	if k.Claim != nil {
		payload = tagClaim.encodeUint64(payload, uint64(*k.Claim))
	}

	if len(k.Transfers) > 0 {
		payload = EncodeVarintUint64(uint64(tagBody), payload)

		transfers := make([]Transfer, len(k.Transfers))
		copy(transfers, k.Transfers)
		sort.SliceStable(transfers, func(i, j int) bool {
			return transfers[i].ID.Cmp(transfers[j].ID) < 0
		})

		var previous RelicID
		for _, transfer := range transfers {
			block, tx := previous.Delta(transfer.ID)
			payload = EncodeVarintUint64(block, payload)
			payload = EncodeVarintUint64(uint64(tx), payload)
			payload = EncodeVarint(transfer.Amount, payload)
			payload = EncodeVarintUint64(uint64(transfer.Output), payload)
			previous = transfer.ID
		}
	}

	return payload
}
