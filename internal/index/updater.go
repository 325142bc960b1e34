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
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
	"github.com/zeebo/blake3"

	"github.com/relicsprotocol/relicd/internal/logging"
	"github.com/relicsprotocol/relicd/internal/relics"
)

// Updater applies the protocol state transition of one block. Transactions
// must be fed in block order; Commit flushes the block-level accumulators.
type Updater struct {
	height       uint32
	blockTime    uint32
	store        StateStore
	inscriptions InscriptionSource
	prevOuts     txscript.PrevOutputFetcher
	chainParams  *chaincfg.Params

	burned       map[relics.RelicID]*uint256.Int
	claimable    map[RelicOwner]*uint256.Int
	unsafeTxids  map[chainhash.Hash]struct{}
	mintsInBlock map[relics.RelicID]uint32
	emitter      *eventEmitter
}

// NewUpdater starts processing a block at the given height and timestamp.
func NewUpdater(
	height uint32,
	blockTime uint32,
	store StateStore,
	inscriptions InscriptionSource,
	prevOuts txscript.PrevOutputFetcher,
	chainParams *chaincfg.Params,
) *Updater {
	return &Updater{
		height:       height,
		blockTime:    blockTime,
		store:        store,
		inscriptions: inscriptions,
		prevOuts:     prevOuts,
		chainParams:  chainParams,
		burned:       make(map[relics.RelicID]*uint256.Int),
		claimable:    make(map[RelicOwner]*uint256.Int),
		unsafeTxids:  make(map[chainhash.Hash]struct{}),
		mintsInBlock: make(map[relics.RelicID]uint32),
		emitter:      &eventEmitter{height: height, store: store},
	}
}

func (u *Updater) addressFromScript(script []byte) (string, bool) {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, u.chainParams)
	if err != nil || len(addrs) != 1 {
		return "", false
	}
	return addrs[0].String(), true
}

// IndexTransaction runs the evaluator over one transaction: decode, then
// seal, enshrine, swap, mint/unmint, claim, and transfers in order, then
// allocate the remainder and finalise the ledger. Failing sub-steps record
// an error event and are skipped; only decode flaws burn.
func (u *Updater) IndexTransaction(txIndex uint32, tx *wire.MsgTx) error {
	txid := tx.TxHash()
	artifact := relics.Decipher(tx)

	balances, err := newRelicBalances(tx, u.unsafeTxids, u.store, u.prevOuts, u.addressFromScript)
	if err != nil {
		return err
	}

	minted, err := u.mintBaseToken(txid, tx)
	if err != nil {
		return err
	}
	if minted != nil {
		balances.addSafe(relics.BaseTokenID, minted)
	}

	keepsake, _ := artifact.(*relics.Keepsake)
	var enshrined *relics.RelicID
	if keepsake != nil {
		if keepsake.Sealing {
			fee, cause, err := u.seal(tx, txid, balances.get(relics.BaseTokenID))
			if err != nil {
				return err
			}
			if cause != nil {
				if err := u.emitError(txid, OpSeal, cause); err != nil {
					return err
				}
			} else {
				// the sealing fee is burned
				balances.remove(relics.BaseTokenID, fee)
				balances.burn(relics.BaseTokenID, fee)
			}
		}

		if keepsake.Enshrining != nil {
			id, subsidy, cause, err := u.enshrine(tx, txid, txIndex, keepsake.Enshrining, balances.get(relics.BaseTokenID))
			if err != nil {
				return err
			}
			if cause != nil {
				if err := u.emitError(txid, OpEnshrine, cause); err != nil {
					return err
				}
			} else {
				if subsidy != nil && !subsidy.IsZero() {
					balances.remove(relics.BaseTokenID, subsidy)
				}
				enshrined = &id
			}
		}

		if keepsake.Swap != nil {
			if err := u.swap(txid, keepsake.Swap, balances); err != nil {
				return err
			}
		}

		if keepsake.Mint != nil {
			if err := u.multiMint(txid, keepsake.Mint, enshrined, balances); err != nil {
				return err
			}
		}

		if keepsake.Claim != nil {
			claim := int(*keepsake.Claim)
			if claim >= len(tx.TxOut) {
				// values beyond the output count never leave the parser
				panic("relic updater: claim output out of range")
			}
			owner := OwnerFromScript(tx.TxOut[claim].PkScript)
			amount, err := u.claim(txid, owner)
			if err != nil {
				return err
			}
			if amount != nil {
				balances.allocate(claim, relics.BaseTokenID, amount)
			} else {
				if err := u.emitError(txid, OpClaim, relicErr(ErrNoClaimableBalance)); err != nil {
					return err
				}
			}
		}

		balances.allocateTransfers(keepsake.Transfers, enshrined, tx)
	}

	firstNonOpReturn := func() (int, bool) {
		for vout, txOut := range tx.TxOut {
			if !isOpReturn(txOut.PkScript) {
				return vout, true
			}
		}
		return 0, false
	}

	defaultOutput := -1
	switch m := artifact.(type) {
	case nil:
		// no protocol message: pass through to the first non-OP_RETURN
		if vout, ok := firstNonOpReturn(); ok {
			defaultOutput = vout
		}
	case *relics.Keepsake:
		if m.Pointer != nil {
			defaultOutput = int(*m.Pointer)
		} else if vout, ok := firstNonOpReturn(); ok {
			defaultOutput = vout
		}
	case *relics.Cenotaph:
		// malformed protocol message: burn everything
		logging.GetLogger().Warn(
			"cenotaph encountered, burning all relics",
			"component", "relics",
			"txid", txid.String(),
			"flaw", m.Flaw.String(),
		)
	}

	if defaultOutput >= 0 {
		// the pointer may still target an OP_RETURN output, which burns
		// on finalize
		balances.allocateAll(defaultOutput)
	} else {
		balances.burnAll()
	}

	return balances.finalize(tx, txid, u.store, u.unsafeTxids, u.burned, u.emitter, u.addressFromScript)
}

// Commit flushes the burned counters and newly claimable fees accumulated
// over the block.
func (u *Updater) Commit() error {
	for _, id := range sortedIDs(u.burned) {
		entry, err := u.store.RelicEntry(id)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("burned relic %s has no entry", id)
		}
		burned, ok := relics.CheckedAdd(entry.State.Burned, u.burned[id])
		if !ok {
			return fmt.Errorf("burned amount of relic %s overflows", id)
		}
		entry.State.Burned = burned
		if err := u.store.PutRelicEntry(id, entry); err != nil {
			return err
		}
	}

	for owner, amount := range u.claimable {
		current, _, err := u.store.TakeClaimable(owner)
		if err != nil {
			return err
		}
		if current == nil {
			current = new(uint256.Int)
		}
		total, ok := relics.CheckedAdd(current, amount)
		if !ok {
			return fmt.Errorf("claimable balance overflows")
		}
		if err := u.store.PutClaimable(owner, total); err != nil {
			return err
		}
	}
	return nil
}

func (u *Updater) emitError(txid chainhash.Hash, op RelicOperation, cause *RelicError) error {
	logging.GetLogger().Debug(
		"relic operation failed",
		"component", "relics",
		"operation", op.String(),
		"txid", txid.String(),
		"error", cause.Error(),
	)
	return u.emitter.emit(txid, ErrorInfo{Operation: op, Err: cause})
}

func (u *Updater) loadEntry(id relics.RelicID) (*RelicEntry, error) {
	return u.store.RelicEntry(id)
}

// seal reserves the ticker carried in the metadata of the inscription
// revealed first in this transaction. The returned fee is burned by the
// caller.
func (u *Updater) seal(tx *wire.MsgTx, txid chainhash.Hash, baseBalance *uint256.Int) (*uint256.Int, *RelicError, error) {
	inscriptionID := InscriptionID{Txid: txid, Index: 0}
	sequence, ok, err := u.inscriptions.SequenceNumber(inscriptionID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, relicErr(ErrInscriptionMissing), nil
	}
	metadata, ok, err := u.inscriptions.Metadata(inscriptionID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, relicErr(ErrInscriptionMetadataMissing), nil
	}
	spaced, ok := relics.FromMetadata(metadata)
	if !ok {
		return nil, relicErr(ErrInvalidMetadata), nil
	}
	base, err := relics.ParseSpacedRelic(relics.BaseTokenName)
	if err != nil {
		return nil, nil, err
	}
	if spaced == base {
		return nil, relicErr(ErrSealingBaseToken), nil
	}
	if _, sealed, err := u.store.SealingByRelic(spaced.Relic); err != nil {
		return nil, nil, err
	} else if sealed {
		return nil, &RelicError{Kind: ErrSealingAlreadyExists, Ticker: spaced}, nil
	}
	fee := spaced.Relic.SealingFee()
	if baseBalance.Lt(fee) {
		return nil, errAmount(ErrSealingInsufficientBalance, fee), nil
	}
	if err := u.store.PutSealing(spaced, sequence); err != nil {
		return nil, nil, err
	}
	err = u.emitter.emit(txid, SealedInfo{
		SpacedRelic:    spaced,
		SequenceNumber: sequence,
		InscriptionID:  inscriptionID,
	})
	if err != nil {
		return nil, nil, err
	}
	return fee, nil, nil
}

// enshrine creates the token entry for a sealed ticker held on this
// transaction's outputs. The returned subsidy has already been checked
// against the base balance and must be debited by the caller.
func (u *Updater) enshrine(
	tx *wire.MsgTx,
	txid chainhash.Hash,
	txIndex uint32,
	enshrining *relics.Enshrining,
	baseBalance *uint256.Int,
) (relics.RelicID, *uint256.Int, *RelicError, error) {
	subsidy := new(uint256.Int)
	if enshrining.Subsidy != nil {
		subsidy.Set(enshrining.Subsidy)
	}
	if !subsidy.IsZero() && baseBalance.Lt(subsidy) {
		return relics.RelicID{}, nil, errAmount(ErrMissingSubsidy, subsidy), nil
	}

	inscriptions, err := u.inscriptions.TransactionInscriptions(txid)
	if err != nil {
		return relics.RelicID{}, nil, nil, err
	}
	if len(inscriptions) == 0 {
		return relics.RelicID{}, nil, relicErr(ErrInscriptionMissing), nil
	}

	// find the first inscription with a sealed ticker
	var spaced relics.SpacedRelic
	var sequence uint32
	var inscriptionID InscriptionID
	found := false
	for _, inscription := range inscriptions {
		candidate, ok, err := u.store.SealingBySequence(inscription.Sequence)
		if err != nil {
			return relics.RelicID{}, nil, nil, err
		}
		if ok {
			spaced = candidate
			sequence = inscription.Sequence
			inscriptionID = inscription.ID
			found = true
			break
		}
	}
	if !found {
		return relics.RelicID{}, nil, relicErr(ErrSealingNotFound), nil
	}

	if _, enshrined, err := u.store.RelicIDByName(spaced.Relic); err != nil {
		return relics.RelicID{}, nil, nil, err
	} else if enshrined {
		return relics.RelicID{}, nil, relicErr(ErrRelicAlreadyEnshrined), nil
	}

	id := relics.RelicID{Block: uint64(u.height), Tx: txIndex}
	if err := u.createRelicEntry(txid, enshrining, id, spaced, sequence, inscriptionID); err != nil {
		return relics.RelicID{}, nil, nil, err
	}
	return id, subsidy, nil, nil
}

func (u *Updater) createRelicEntry(
	txid chainhash.Hash,
	enshrining *relics.Enshrining,
	id relics.RelicID,
	spaced relics.SpacedRelic,
	ownerSequence uint32,
	inscriptionID InscriptionID,
) error {
	if err := u.store.PutRelicIDByName(spaced.Relic, id); err != nil {
		return err
	}
	if err := u.store.PutRelicByTransaction(txid, spaced.Relic); err != nil {
		return err
	}

	number, err := u.store.RelicCount()
	if err != nil {
		return err
	}
	if err := u.store.SetRelicCount(number + 1); err != nil {
		return err
	}

	entry := NewRelicEntry()
	entry.Block = id.Block
	entry.Enshrining = txid
	entry.Number = number
	entry.SpacedRelic = spaced
	entry.Symbol = enshrining.Symbol
	entry.OwnerSequence = &ownerSequence
	entry.BoostTerms = enshrining.BoostTerms
	entry.MintTerms = enshrining.MintTerms
	entry.Timestamp = uint64(u.blockTime)
	if enshrining.Fee != nil {
		entry.Fee = *enshrining.Fee
	}

	// a subsidy seeds a placeholder pool that opens on mint-out
	if enshrining.Subsidy != nil && !enshrining.Subsidy.IsZero() {
		fee := entry.Fee
		if fee > relics.MaxPoolFeeBps {
			fee = relics.MaxPoolFeeBps
		}
		entry.Pool = relics.NewPool(new(uint256.Int), new(uint256.Int), fee, enshrining.Subsidy)
	}

	if err := u.store.PutRelicEntry(id, entry); err != nil {
		return err
	}

	return u.emitter.emit(txid, EnshrinedInfo{Relic: id, InscriptionID: inscriptionID})
}

// swap resolves and executes a swap order, including dual-leg orders
// routed through the base token. Swaps consume only safe input balance.
func (u *Updater) swap(txid chainhash.Hash, swap *relics.Swap, balances *relicBalances) error {
	input := swap.InputID()
	output := swap.OutputID()
	if input == output {
		panic("relic updater: parser produced a swap with input == output")
	}

	inputEntry, err := u.loadEntry(input)
	if err != nil {
		return err
	}
	outputEntry, err := u.loadEntry(output)
	if err != nil {
		return err
	}

	sell, buy, cause := u.swapCalculate(swap, input, inputEntry, output, outputEntry, balances.getSafe(input))
	if cause != nil {
		return u.emitError(txid, OpSwap, cause)
	}

	type feeShare struct {
		owner *RelicOwner
		fee   *uint256.Int
	}
	var fees []feeShare
	apply := func(id relics.RelicID, entry *RelicEntry, diff relics.BalanceDiff) error {
		owner, err := u.swapApply(swap, txid, id, entry, diff)
		if err != nil {
			return err
		}
		fees = append(fees, feeShare{owner: owner, fee: diff.Fee})
		return nil
	}
	if sell != nil {
		if err := apply(input, inputEntry, *sell); err != nil {
			return err
		}
	}
	if buy != nil {
		if err := apply(output, outputEntry, *buy); err != nil {
			return err
		}
	}

	var inputAmount, outputAmount *uint256.Int
	switch {
	case sell != nil && buy == nil:
		inputAmount, outputAmount = sell.Input, sell.Output
	case sell == nil && buy != nil:
		inputAmount, outputAmount = buy.Input, buy.Output
	default:
		inputAmount, outputAmount = sell.Input, buy.Output
	}

	balances.removeSafe(input, inputAmount)
	balances.add(output, outputAmount)
	for _, share := range fees {
		if share.fee.IsZero() {
			continue
		}
		if share.owner != nil {
			cur, ok := u.claimable[*share.owner]
			if !ok {
				cur = new(uint256.Int)
				u.claimable[*share.owner] = cur
			}
			cur.Add(cur, share.fee)
		} else {
			// without an owner the fee is burned
			balances.burn(relics.BaseTokenID, share.fee)
		}
	}
	return nil
}

func (u *Updater) swapCalculate(
	swap *relics.Swap,
	input relics.RelicID,
	inputEntry *RelicEntry,
	output relics.RelicID,
	outputEntry *RelicEntry,
	inputBalance *uint256.Int,
) (*relics.BalanceDiff, *relics.BalanceDiff, *RelicError) {
	if inputEntry == nil {
		return nil, nil, errRelicNotFound(input)
	}
	if outputEntry == nil {
		return nil, nil, errRelicNotFound(output)
	}

	simpleSwap := func(direction relics.SwapDirection) relics.PoolSwap {
		if swap.IsExactInput {
			in := new(uint256.Int)
			if swap.InputAmount != nil {
				in.Set(swap.InputAmount)
			}
			return relics.ExactInputSwap(direction, in, swap.OutputAmount)
		}
		out := new(uint256.Int)
		if swap.OutputAmount != nil {
			out.Set(swap.OutputAmount)
		}
		return relics.ExactOutputSwap(direction, out, swap.InputAmount)
	}

	switch {
	case input == relics.BaseTokenID:
		// buy the output token
		diff, err := outputEntry.Swap(simpleSwap(relics.SwapBaseToQuote), inputBalance)
		if err != nil {
			return nil, nil, err
		}
		return nil, &diff, nil
	case output == relics.BaseTokenID:
		// sell the input token
		diff, err := inputEntry.Swap(simpleSwap(relics.SwapQuoteToBase), inputBalance)
		if err != nil {
			return nil, nil, err
		}
		return &diff, nil, nil
	default:
		// dual leg: sell the input token, buy the output token
		if swap.IsExactInput {
			in := new(uint256.Int)
			if swap.InputAmount != nil {
				in.Set(swap.InputAmount)
			}
			// no slippage check on the first leg; the check runs on
			// the final output
			sell, err := inputEntry.Swap(relics.ExactInputSwap(relics.SwapQuoteToBase, in, nil), inputBalance)
			if err != nil {
				return nil, nil, err
			}
			buy, err := outputEntry.Swap(relics.ExactInputSwap(relics.SwapBaseToQuote, sell.Output, swap.OutputAmount), nil)
			if err != nil {
				return nil, nil, err
			}
			return &sell, &buy, nil
		}
		// solve the buy first to learn the base needed from the sell
		out := new(uint256.Int)
		if swap.OutputAmount != nil {
			out.Set(swap.OutputAmount)
		}
		buy, err := outputEntry.Swap(relics.ExactOutputSwap(relics.SwapBaseToQuote, out, nil), nil)
		if err != nil {
			return nil, nil, err
		}
		sell, err := inputEntry.Swap(relics.ExactOutputSwap(relics.SwapQuoteToBase, buy.Input, swap.InputAmount), inputBalance)
		if err != nil {
			return nil, nil, err
		}
		return &sell, &buy, nil
	}
}

// swapApply mutates the pool, persists the entry, emits the swap event,
// and resolves the fee recipient.
func (u *Updater) swapApply(
	swap *relics.Swap,
	txid chainhash.Hash,
	id relics.RelicID,
	entry *RelicEntry,
	diff relics.BalanceDiff,
) (*RelicOwner, error) {
	entry.Pool.Apply(diff)
	if err := u.store.PutRelicEntry(id, entry); err != nil {
		return nil, err
	}

	var owner *RelicOwner
	if !diff.Fee.IsZero() && entry.OwnerSequence != nil {
		script, ok, err := u.inscriptions.OwnerScript(*entry.OwnerSequence)
		if err != nil {
			return nil, err
		}
		if ok {
			o := OwnerFromScript(script)
			owner = &o
		}
	}

	var baseAmount, quoteAmount *uint256.Int
	isSellOrder := diff.Direction == relics.SwapQuoteToBase
	if isSellOrder {
		baseAmount, quoteAmount = diff.Output, diff.Input
	} else {
		baseAmount, quoteAmount = diff.Input, diff.Output
	}
	err := u.emitter.emit(txid, SwappedInfo{
		Relic:        id,
		BaseAmount:   new(uint256.Int).Set(baseAmount),
		QuoteAmount:  new(uint256.Int).Set(quoteAmount),
		Fee:          new(uint256.Int).Set(diff.Fee),
		IsSellOrder:  isSellOrder,
		IsExactInput: swap.IsExactInput,
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// multiMint runs the mint or unmint sub-step.
func (u *Updater) multiMint(txid chainhash.Hash, multi *relics.MultiMint, enshrined *relics.RelicID, balances *relicBalances) error {
	// a default relic targets the token enshrined in this transaction
	var id relics.RelicID
	if multi.Relic == (relics.RelicID{}) {
		if enshrined == nil {
			return nil
		}
		id = *enshrined
	} else {
		id = multi.Relic
	}

	if multi.IsUnmint {
		if enshrined != nil {
			return u.emitError(txid, OpUnmint, relicErr(ErrUnmintNotAllowed))
		}
		lots, cause, err := u.unmint(txid, id, balances.get(id), multi.Count, multi.BaseLimit)
		if err != nil {
			return err
		}
		if cause != nil {
			return u.emitError(txid, OpMultiUnmint, cause)
		}
		totalRelic := new(uint256.Int)
		totalBase := new(uint256.Int)
		for _, lot := range lots {
			totalRelic.Add(totalRelic, lot.Amount)
			totalBase.Add(totalBase, lot.Price)
		}
		err = u.emitter.emit(txid, MultiMintedInfo{
			Relic:     id,
			Amount:    new(uint256.Int).Set(totalBase),
			NumMints:  multi.Count,
			BaseLimit: new(uint256.Int).Set(multi.BaseLimit),
			IsUnmint:  true,
		})
		if err != nil {
			return err
		}
		balances.remove(id, totalRelic)
		balances.add(relics.BaseTokenID, totalBase)
		return nil
	}

	lots, cause, err := u.mint(txid, id, balances.get(relics.BaseTokenID), multi.Count, multi.BaseLimit)
	if err != nil {
		return err
	}
	if cause != nil {
		return u.emitError(txid, OpMultiMint, cause)
	}
	if len(lots) == 0 {
		return nil
	}
	totalRelic := new(uint256.Int)
	totalBase := new(uint256.Int)
	for _, lot := range lots {
		totalRelic.Add(totalRelic, lot.Amount)
		totalBase.Add(totalBase, lot.Price)
	}
	err = u.emitter.emit(txid, MultiMintedInfo{
		Relic:     id,
		Amount:    new(uint256.Int).Set(totalRelic),
		NumMints:  multi.Count,
		BaseLimit: new(uint256.Int).Set(multi.BaseLimit),
		IsUnmint:  false,
	})
	if err != nil {
		return err
	}
	balances.remove(relics.BaseTokenID, totalBase)
	balances.add(id, totalRelic)
	return nil
}

// boostMultiplier derives the deterministic mint multiplier from on-chain
// data: a blake3 hash over the token's block, the txid, and the slot index.
func boostMultiplier(id relics.RelicID, txid chainhash.Hash, mintIndex uint64, boost *relics.BoostTerms) uint32 {
	hasher := blake3.New()
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], id.Block)
	hasher.Write(scratch[:])
	hasher.Write(txid[:])
	binary.LittleEndian.PutUint64(scratch[:], mintIndex)
	hasher.Write(scratch[:])
	digest := hasher.Sum(nil)
	seed := binary.LittleEndian.Uint64(digest[:8])
	randVal := uint32(seed % 1_000_000)

	multiplier := uint32(1)
	if boost.UltraRareChance != nil && boost.UltraRareMultiplierCap != nil {
		if randVal < *boost.UltraRareChance && boost.RareMultiplierCap != nil {
			min := uint32(*boost.RareMultiplierCap)
			max := uint32(*boost.UltraRareMultiplierCap)
			multiplier = min + randVal%(max-min+1)
		}
	}
	if multiplier == 1 {
		if boost.RareChance != nil && boost.RareMultiplierCap != nil {
			if randVal < *boost.RareChance {
				max := uint32(*boost.RareMultiplierCap)
				multiplier = 1 + randVal%max
			}
		}
	}
	return multiplier
}

func (u *Updater) mint(
	txid chainhash.Hash,
	id relics.RelicID,
	baseBalance *uint256.Int,
	requestedMints uint8,
	baseLimit *uint256.Int,
) ([]MintLot, *RelicError, error) {
	if id == relics.BaseTokenID {
		panic("relic updater: parser produced a mint for the base token")
	}
	entry, err := u.loadEntry(id)
	if err != nil {
		return nil, nil, err
	}
	if entry == nil {
		return nil, errRelicNotFound(id), nil
	}

	potential, cause := entry.Mintable(baseBalance, requestedMints, baseLimit)
	if cause != nil {
		return nil, cause, nil
	}
	if len(potential) == 0 {
		return nil, nil, nil
	}

	numMints := len(potential)

	// clamp to the per-block mint limit
	if entry.MintTerms != nil && entry.MintTerms.BlockCap != nil {
		blockCap := *entry.MintTerms.BlockCap
		remaining := blockCap - u.mintsInBlock[id]
		if u.mintsInBlock[id] >= blockCap {
			return nil, &RelicError{Kind: ErrMintBlockCapExceeded, Count: uint64(blockCap)}, nil
		}
		if uint32(numMints) > remaining {
			numMints = int(remaining)
		}
	}
	if numMints == 0 {
		return nil, nil, nil
	}

	currentMints := new(uint256.Int).Set(entry.State.Mints)
	type mintResult struct {
		amount     *uint256.Int
		price      *uint256.Int
		multiplier uint32
	}
	results := make([]mintResult, 0, numMints)
	totalPrice := new(uint256.Int)
	for i, lot := range potential[:numMints] {
		amount := new(uint256.Int).Set(lot.Amount)
		multiplier := uint32(1)
		if entry.BoostTerms != nil {
			mintIndex := new(uint256.Int).AddUint64(currentMints, uint64(i))
			multiplier = boostMultiplier(id, txid, mintIndex.Uint64(), entry.BoostTerms)
			if boosted, ok := relics.CheckedMul(amount, uint256.NewInt(uint64(multiplier))); ok {
				amount = boosted
			}
		}
		results = append(results, mintResult{amount: amount, price: lot.Price, multiplier: multiplier})
		var ok bool
		if totalPrice, ok = relics.CheckedAdd(totalPrice, lot.Price); !ok {
			return nil, relicErr(ErrUnmintable), nil
		}
	}

	if baseBalance.Lt(totalPrice) {
		return nil, errAmount(ErrMintInsufficientBalance, totalPrice), nil
	}

	if entry.MintTerms != nil && entry.MintTerms.BlockCap != nil {
		u.mintsInBlock[id] += uint32(numMints)
	}

	entry.State.Mints.AddUint64(entry.State.Mints, uint64(numMints))

	// bootstrap the pool when the cap is reached
	if entry.MintTerms != nil && entry.MintTerms.Cap != nil && entry.State.Mints.Eq(entry.MintTerms.Cap) {
		baseSupply := entry.LockedBaseSupply()
		quoteSupply := new(uint256.Int)
		if entry.MintTerms.Seed != nil {
			quoteSupply.Set(entry.MintTerms.Seed)
		}
		if !baseSupply.IsZero() && !quoteSupply.IsZero() {
			fee := entry.Fee
			if fee > relics.MaxPoolFeeBps {
				fee = relics.MaxPoolFeeBps
			}
			// the subsidy is absorbed into the pool and must not be
			// taken again
			entry.Pool = relics.NewPool(baseSupply, quoteSupply, fee, new(uint256.Int))
		} else {
			logging.GetLogger().Warn(
				"unable to create pool: both supplies must be non-zero",
				"component", "relics",
				"relic", entry.SpacedRelic.String(),
				"base_supply", baseSupply.String(),
				"quote_supply", quoteSupply.String(),
			)
		}
	}

	if err := u.store.PutRelicEntry(id, entry); err != nil {
		return nil, nil, err
	}

	lots := make([]MintLot, 0, len(results))
	for _, result := range results {
		err := u.emitter.emit(txid, MintedInfo{
			Relic:      id,
			Amount:     new(uint256.Int).Set(result.amount),
			Multiplier: result.multiplier,
			IsUnmint:   false,
		})
		if err != nil {
			return nil, nil, err
		}
		lots = append(lots, MintLot{Amount: result.amount, Price: result.price})
	}
	return lots, nil, nil
}

func (u *Updater) unmint(
	txid chainhash.Hash,
	id relics.RelicID,
	balance *uint256.Int,
	count uint8,
	baseMin *uint256.Int,
) ([]MintLot, *RelicError, error) {
	if id == relics.BaseTokenID {
		panic("relic updater: unmint for the base token is not allowed")
	}
	entry, err := u.loadEntry(id)
	if err != nil {
		return nil, nil, err
	}
	if entry == nil {
		return nil, errRelicNotFound(id), nil
	}

	lots, cause := entry.Unmintable(balance, count, baseMin)
	if cause != nil {
		return nil, cause, nil
	}

	entry.State.Mints.SubUint64(entry.State.Mints, uint64(count))
	entry.State.Unmints.AddUint64(entry.State.Unmints, uint64(count))
	if err := u.store.PutRelicEntry(id, entry); err != nil {
		return nil, nil, err
	}

	for _, lot := range lots {
		err := u.emitter.emit(txid, MintedInfo{
			Relic:      id,
			Amount:     new(uint256.Int).Set(lot.Amount),
			Multiplier: 1,
			IsUnmint:   true,
		})
		if err != nil {
			return nil, nil, err
		}
	}
	return lots, nil, nil
}

// claim merges the owner's persisted claimable balance with fees accrued
// during this block and returns the total, or nil if there is nothing to
// claim.
func (u *Updater) claim(txid chainhash.Hash, owner RelicOwner) (*uint256.Int, error) {
	persisted, havePersisted, err := u.store.TakeClaimable(owner)
	if err != nil {
		return nil, err
	}
	accrued, haveAccrued := u.claimable[owner]
	delete(u.claimable, owner)
	if !havePersisted && !haveAccrued {
		return nil, nil
	}
	total := new(uint256.Int)
	if havePersisted {
		total.Add(total, persisted)
	}
	if haveAccrued {
		total.Add(total, accrued)
	}
	if err := u.emitter.emit(txid, ClaimedInfo{Amount: new(uint256.Int).Set(total)}); err != nil {
		return nil, err
	}
	return total, nil
}

// mintBaseToken credits base tokens for every burned inception inscription
// in the transaction.
func (u *Updater) mintBaseToken(txid chainhash.Hash, tx *wire.MsgTx) (*uint256.Int, error) {
	inscriptions, err := u.inscriptions.TransactionInscriptions(txid)
	if err != nil {
		return nil, err
	}
	var burnedInceptions uint64
	for _, inscription := range inscriptions {
		if inscription.Burned && inscription.InceptionParent {
			burnedInceptions++
		}
	}
	if burnedInceptions == 0 {
		return nil, nil
	}

	entry, err := u.loadEntry(relics.BaseTokenID)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.MintTerms == nil {
		return nil, fmt.Errorf("base token entry missing")
	}
	terms := entry.MintTerms
	mints := new(uint256.Int).AddUint64(entry.State.Mints, burnedInceptions)
	if terms.Cap != nil && mints.Gt(terms.Cap) {
		return nil, fmt.Errorf("too many mints of the base token, is the cap set correctly?")
	}
	entry.State.Mints = mints
	amount := new(uint256.Int).Mul(terms.Amount, uint256.NewInt(burnedInceptions))

	if err := u.store.PutRelicEntry(relics.BaseTokenID, entry); err != nil {
		return nil, err
	}

	err = u.emitter.emit(txid, MintedInfo{
		Relic:      relics.BaseTokenID,
		Amount:     new(uint256.Int).Set(amount),
		Multiplier: 1,
		IsUnmint:   false,
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}
