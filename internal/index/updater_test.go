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

package index_test

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicsprotocol/relicd/internal/index"
	"github.com/relicsprotocol/relicd/internal/relics"
)

func TestBaseTokenMintWithFanOut(t *testing.T) {
	c := newTestContext(t)

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Transfers: []relics.Transfer{
			// split the minted amount across all non-OP_RETURN outputs
			{ID: relics.BaseTokenID, Amount: amount(0), Output: 3},
		},
	})))
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 1)))
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 2)))
	txid := tx.TxHash()
	c.registerBaseMint(txid, 2)

	c.indexTx(tx)
	c.commit()

	total := uint64(2 * index.BaseTokenMintAmount)
	assert.Equal(t, total/2, c.outBalance(txid, 1, relics.BaseTokenID).Uint64())
	assert.Equal(t, total/2, c.outBalance(txid, 2, relics.BaseTokenID).Uint64())

	base := c.entry(relics.BaseTokenID)
	assert.Equal(t, uint64(2), base.State.Mints.Uint64())
	assert.Equal(t, total, base.CirculatingSupply().Uint64())

	events := c.store.TransactionEvents(txid)
	require.NotEmpty(t, events)
	minted, ok := events[0].Info.(index.MintedInfo)
	require.True(t, ok, "first event should be the base mint")
	assert.Equal(t, total, minted.Amount.Uint64())
}

func TestSealEnshrineMintSwap(t *testing.T) {
	c := newTestContext(t)

	// mint base tokens by burning two inception inscriptions
	baseTx := wire.NewMsgTx(2)
	baseTx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 1)))
	baseTxid := baseTx.TxHash()
	c.registerBaseMint(baseTxid, 2)
	c.indexTx(baseTx)
	baseBalance := uint64(2 * index.BaseTokenMintAmount)
	assert.Equal(t, baseBalance, c.outBalance(baseTxid, 0, relics.BaseTokenID).Uint64())

	// seal and enshrine in one transaction, funded by the base outpoint
	c.newBlock()
	spaced, err := relics.ParseSpacedRelic("BASIC•TEST•RELIC")
	require.NoError(t, err)
	metadata, err := spaced.ToMetadata()
	require.NoError(t, err)

	enshrineTx := wire.NewMsgTx(2)
	enshrineTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: baseTxid, Index: 0}, nil, nil))
	c.prevOuts.AddPrevOut(
		wire.OutPoint{Hash: baseTxid, Index: 0},
		wire.NewTxOut(10_000, p2pkhScript(t, 1)),
	)
	enshrineTx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 1)))
	enshrineTx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Sealing: true,
		Enshrining: &relics.Enshrining{
			Fee: u16p(100),
			MintTerms: &relics.MintTerms{
				Amount: amount(1000),
				Cap:    amount(1),
				Price:  relics.FixedPrice(amount(5000)),
				Seed:   amount(1000),
			},
		},
	})))
	enshrineTxid := enshrineTx.TxHash()
	inscriptionID := index.InscriptionID{Txid: enshrineTxid, Index: 0}
	c.inscriptions.sequences[inscriptionID] = 7
	c.inscriptions.metadata[inscriptionID] = metadata
	c.inscriptions.txInscriptions[enshrineTxid] = []index.TxInscription{
		{Sequence: 7, ID: inscriptionID},
	}
	c.inscriptions.ownerScripts[7] = p2pkhScript(t, 1)
	c.indexTx(enshrineTx)

	id := relics.RelicID{Block: uint64(c.height), Tx: 0}
	entry := c.entry(id)
	assert.Equal(t, spaced, entry.SpacedRelic)
	assert.Equal(t, uint16(100), entry.Fee)
	assert.Nil(t, entry.Pool)
	require.NotNil(t, entry.OwnerSequence)
	assert.Equal(t, uint32(7), *entry.OwnerSequence)

	// the 14-letter ticker costs 1 base unit scaled by divisibility
	sealingFee := uint64(100_000_000)
	baseBalance -= sealingFee
	assert.Equal(t, baseBalance, c.outBalance(enshrineTxid, 0, relics.BaseTokenID).Uint64())

	// sealing is one-shot
	sequence, sealed, err := c.store.SealingByRelic(spaced.Relic)
	require.NoError(t, err)
	require.True(t, sealed)
	assert.Equal(t, uint32(7), sequence)

	// mint the single available slot, which bootstraps the pool
	c.newBlock()
	mintTx := wire.NewMsgTx(2)
	mintTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: enshrineTxid, Index: 0}, nil, nil))
	c.prevOuts.AddPrevOut(
		wire.OutPoint{Hash: enshrineTxid, Index: 0},
		wire.NewTxOut(10_000, p2pkhScript(t, 1)),
	)
	mintTx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 1)))
	mintTx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 2)))
	mintTx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Mint: &relics.MultiMint{
			Count:     1,
			BaseLimit: amount(5000),
			Relic:     id,
		},
		Transfers: []relics.Transfer{
			{ID: id, Amount: amount(0), Output: 1},
		},
	})))
	mintTxid := mintTx.TxHash()
	c.indexTx(mintTx)

	entry = c.entry(id)
	assert.Equal(t, uint64(1), entry.State.Mints.Uint64())
	require.NotNil(t, entry.Pool)
	assert.Equal(t, uint64(5000), entry.Pool.BaseSupply.Uint64())
	assert.Equal(t, uint64(1000), entry.Pool.QuoteSupply.Uint64())
	assert.True(t, entry.Pool.Subsidy.IsZero())

	baseBalance -= 5000
	assert.Equal(t, baseBalance, c.outBalance(mintTxid, 0, relics.BaseTokenID).Uint64())
	assert.Equal(t, uint64(1000), c.outBalance(mintTxid, 1, id).Uint64())

	// sell 5 quote tokens for base
	c.newBlock()
	swapTx := wire.NewMsgTx(2)
	swapTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: mintTxid, Index: 1}, nil, nil))
	c.prevOuts.AddPrevOut(
		wire.OutPoint{Hash: mintTxid, Index: 1},
		wire.NewTxOut(10_000, p2pkhScript(t, 2)),
	)
	swapTx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 2)))
	swapTx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Swap: &relics.Swap{
			Input:        &id,
			InputAmount:  amount(5),
			IsExactInput: true,
		},
	})))
	swapTxid := swapTx.TxHash()
	c.indexTx(swapTx)
	c.commit()

	var swapped *index.SwappedInfo
	for _, event := range c.store.TransactionEvents(swapTxid) {
		if info, ok := event.Info.(index.SwappedInfo); ok {
			swapped = &info
			break
		}
	}
	require.NotNil(t, swapped, "expected a swap event")
	// floor(5*5000*9900/10000 / (1000 + 5*9900/10000)) with the 1% fee
	assert.Equal(t, uint64(24), swapped.BaseAmount.Uint64())
	assert.Equal(t, uint64(5), swapped.QuoteAmount.Uint64())
	assert.True(t, swapped.IsSellOrder)
	assert.True(t, swapped.IsExactInput)

	entry = c.entry(id)
	assert.Equal(t, uint64(4976), entry.Pool.BaseSupply.Uint64())
	assert.Equal(t, uint64(1005), entry.Pool.QuoteSupply.Uint64())

	assert.Equal(t, uint64(995), c.outBalance(swapTxid, 0, id).Uint64())
	assert.Equal(t, uint64(24), c.outBalance(swapTxid, 0, relics.BaseTokenID).Uint64())

	// conservation: the sum of outstanding balances matches the entry's
	// circulating supply
	assert.Equal(
		t,
		entry.CirculatingSupply().Uint64(),
		c.outBalance(swapTxid, 0, id).Uint64(),
	)
}

func TestSwapRejectsUnsafeBalance(t *testing.T) {
	c := newTestContext(t)
	id := relics.RelicID{Block: 50, Tx: 1}
	c.enshrineTestToken(id, "UNSAFETEST", relics.NewPool(amount(5000), amount(1000), 100, amount(0)), nil)

	// receive quote tokens in this block, then try to swap them in the
	// same block
	fundTx := wire.NewMsgTx(2)
	fundTx.AddTxIn(c.fund(10, index.OutpointBalance{ID: id, Amount: amount(100)}))
	fundTx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 11)))
	fundTxid := fundTx.TxHash()
	c.indexTx(fundTx)

	swapTx := wire.NewMsgTx(2)
	swapTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: fundTxid, Index: 0}, nil, nil))
	c.prevOuts.AddPrevOut(
		wire.OutPoint{Hash: fundTxid, Index: 0},
		wire.NewTxOut(10_000, p2pkhScript(t, 11)),
	)
	swapTx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 11)))
	swapTx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Swap: &relics.Swap{
			Input:        &id,
			InputAmount:  amount(5),
			IsExactInput: true,
		},
	})))
	swapTxid := swapTx.TxHash()
	c.indexTx(swapTx)
	c.commit()

	var swapError *index.ErrorInfo
	for _, event := range c.store.TransactionEvents(swapTxid) {
		if info, ok := event.Info.(index.ErrorInfo); ok {
			swapError = &info
		}
	}
	require.NotNil(t, swapError, "in-block balance must not be swappable")
	assert.Equal(t, index.OpSwap, swapError.Operation)
	assert.Equal(t, index.ErrSwapInsufficientBalance, swapError.Err.Kind)

	// the balance itself passes through untouched
	assert.Equal(t, uint64(100), c.outBalance(swapTxid, 0, id).Uint64())
}

func TestCenotaphBurnsAllInputs(t *testing.T) {
	c := newTestContext(t)
	id := relics.RelicID{Block: 50, Tx: 1}
	c.enshrineTestToken(id, "BURNTEST", nil, nil)

	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddOp(relics.MagicOpcode).
		// tag 126 is an unrecognized even tag
		AddData([]byte{126, 0}).
		Script()
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(c.fund(20, index.OutpointBalance{ID: id, Amount: amount(5000)}))
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 21)))
	tx.AddTxOut(wire.NewTxOut(0, script))
	txid := tx.TxHash()
	c.indexTx(tx)
	c.commit()

	assert.True(t, c.outBalance(txid, 0, id).IsZero())

	entry := c.entry(id)
	assert.Equal(t, uint64(5000), entry.State.Burned.Uint64())

	var burned *index.BurnedInfo
	for _, event := range c.store.TransactionEvents(txid) {
		if info, ok := event.Info.(index.BurnedInfo); ok {
			burned = &info
		}
	}
	require.NotNil(t, burned)
	assert.Equal(t, uint64(5000), burned.Amount.Uint64())
}

func TestTransferSplitWithRemainder(t *testing.T) {
	c := newTestContext(t)
	id := relics.RelicID{Block: 50, Tx: 1}
	c.enshrineTestToken(id, "SPLITTEST", nil, nil)

	max := relics.MaxU128()
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(c.fund(30, index.OutpointBalance{ID: id, Amount: max}))
	tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Transfers: []relics.Transfer{
			{ID: id, Amount: amount(0), Output: 5},
		},
	})))
	for i := byte(0); i < 4; i++ {
		tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 31+i)))
	}
	txid := tx.TxHash()
	c.indexTx(tx)
	c.commit()

	quarter := new(uint256.Int).Div(max, amount(4))
	withExtra := new(uint256.Int).AddUint64(quarter, 1)
	// u128 max mod 4 == 3: the first three outputs get one extra unit
	for vout := uint32(1); vout <= 3; vout++ {
		assert.True(
			t,
			c.outBalance(txid, vout, id).Eq(withExtra),
			"output %d should hold the larger share",
			vout,
		)
	}
	assert.True(t, c.outBalance(txid, 4, id).Eq(quarter))
}

func TestPointerToOpReturnBurns(t *testing.T) {
	c := newTestContext(t)
	id := relics.RelicID{Block: 50, Tx: 1}
	c.enshrineTestToken(id, "POINTERTEST", nil, nil)

	pointer := uint32(0)
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(c.fund(40, index.OutpointBalance{ID: id, Amount: amount(777)}))
	tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{Pointer: &pointer})))
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 41)))
	txid := tx.TxHash()
	c.indexTx(tx)
	c.commit()

	assert.True(t, c.outBalance(txid, 1, id).IsZero())
	entry := c.entry(id)
	assert.Equal(t, uint64(777), entry.State.Burned.Uint64())
}

func TestDualLegExactOutputSwapAndClaim(t *testing.T) {
	c := newTestContext(t)
	ownerSequence := uint32(42)
	ownerScript := p2pkhScript(t, 99)
	c.inscriptions.ownerScripts[ownerSequence] = ownerScript

	id1 := relics.RelicID{Block: 50, Tx: 1}
	id2 := relics.RelicID{Block: 51, Tx: 1}
	c.enshrineTestToken(id1, "DUALLEGONE", relics.NewPool(amount(5000), amount(1000), 100, amount(0)), &ownerSequence)
	c.enshrineTestToken(id2, "DUALLEGTWO", relics.NewPool(amount(5000), amount(1000), 100, amount(0)), &ownerSequence)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(c.fund(50, index.OutpointBalance{ID: id1, Amount: amount(600)}))
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 51)))
	tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Swap: &relics.Swap{
			Input:        &id1,
			Output:       &id2,
			InputAmount:  amount(600),
			OutputAmount: amount(100),
			IsExactInput: false,
		},
	})))
	txid := tx.TxHash()
	c.indexTx(tx)

	var swaps []index.SwappedInfo
	for _, event := range c.store.TransactionEvents(txid) {
		if info, ok := event.Info.(index.SwappedInfo); ok {
			swaps = append(swaps, info)
		}
	}
	require.Len(t, swaps, 2)

	sell, buy := swaps[0], swaps[1]
	assert.Equal(t, uint64(562), sell.BaseAmount.Uint64())
	assert.Equal(t, uint64(129), sell.QuoteAmount.Uint64())
	assert.Equal(t, uint64(6), sell.Fee.Uint64())
	assert.True(t, sell.IsSellOrder)

	assert.Equal(t, uint64(562), buy.BaseAmount.Uint64())
	assert.Equal(t, uint64(100), buy.QuoteAmount.Uint64())
	assert.Equal(t, uint64(6), buy.Fee.Uint64())
	assert.False(t, buy.IsSellOrder)

	assert.Equal(t, uint64(471), c.outBalance(txid, 0, id1).Uint64())
	assert.Equal(t, uint64(100), c.outBalance(txid, 0, id2).Uint64())

	// both legs' fees accrue to the owner and are claimable in-block
	claimOutput := uint32(0)
	claimTx := wire.NewMsgTx(2)
	claimTx.AddTxOut(wire.NewTxOut(10_000, ownerScript))
	claimTx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{Claim: &claimOutput})))
	claimTxid := claimTx.TxHash()
	c.indexTx(claimTx)
	c.commit()

	var claimed *index.ClaimedInfo
	for _, event := range c.store.TransactionEvents(claimTxid) {
		if info, ok := event.Info.(index.ClaimedInfo); ok {
			claimed = &info
		}
	}
	require.NotNil(t, claimed)
	assert.Equal(t, uint64(12), claimed.Amount.Uint64())
	assert.Equal(t, uint64(12), c.outBalance(claimTxid, 0, relics.BaseTokenID).Uint64())
}

func TestClaimWithoutBalance(t *testing.T) {
	c := newTestContext(t)
	claimOutput := uint32(0)
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 60)))
	tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{Claim: &claimOutput})))
	txid := tx.TxHash()
	c.indexTx(tx)
	c.commit()

	events := c.store.TransactionEvents(txid)
	require.Len(t, events, 1)
	info, ok := events[0].Info.(index.ErrorInfo)
	require.True(t, ok)
	assert.Equal(t, index.OpClaim, info.Operation)
	assert.Equal(t, index.ErrNoClaimableBalance, info.Err.Kind)
}

func TestUnmintAfterPartialCap(t *testing.T) {
	c := newTestContext(t)
	id := relics.RelicID{Block: 50, Tx: 1}
	maxUnmints := uint32(100)
	entry := index.NewRelicEntry()
	spaced, err := relics.ParseSpacedRelic("UNMINTTEST")
	require.NoError(t, err)
	entry.SpacedRelic = spaced
	entry.MintTerms = &relics.MintTerms{
		Amount:     amount(1000),
		Cap:        amount(10),
		Price:      relics.FixedPrice(amount(5000)),
		MaxUnmints: &maxUnmints,
	}
	entry.State.Mints = amount(1)
	require.NoError(t, c.store.PutRelicEntry(id, entry))

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(c.fund(70, index.OutpointBalance{ID: id, Amount: amount(1000)}))
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 71)))
	tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Mint: &relics.MultiMint{
			Count:     1,
			BaseLimit: amount(0),
			IsUnmint:  true,
			Relic:     id,
		},
	})))
	txid := tx.TxHash()
	c.indexTx(tx)
	c.commit()

	entry = c.entry(id)
	assert.True(t, entry.State.Mints.IsZero())
	assert.Equal(t, uint64(1), entry.State.Unmints.Uint64())

	// the unminted tokens are gone, the fixed price comes back as base
	assert.True(t, c.outBalance(txid, 0, id).IsZero())
	assert.Equal(t, uint64(5000), c.outBalance(txid, 0, relics.BaseTokenID).Uint64())
}

func TestUnmintRejectedAtCap(t *testing.T) {
	c := newTestContext(t)
	id := relics.RelicID{Block: 50, Tx: 1}
	maxUnmints := uint32(100)
	entry := index.NewRelicEntry()
	spaced, err := relics.ParseSpacedRelic("UNMINTCAP")
	require.NoError(t, err)
	entry.SpacedRelic = spaced
	entry.MintTerms = &relics.MintTerms{
		Amount:     amount(1000),
		Cap:        amount(10),
		Price:      relics.FixedPrice(amount(5000)),
		MaxUnmints: &maxUnmints,
	}
	entry.State.Mints = amount(10)
	require.NoError(t, c.store.PutRelicEntry(id, entry))

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(c.fund(80, index.OutpointBalance{ID: id, Amount: amount(1000)}))
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 81)))
	tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Mint: &relics.MultiMint{
			Count:     1,
			BaseLimit: amount(0),
			IsUnmint:  true,
			Relic:     id,
		},
	})))
	txid := tx.TxHash()
	c.indexTx(tx)
	c.commit()

	var unmintError *index.ErrorInfo
	for _, event := range c.store.TransactionEvents(txid) {
		if info, ok := event.Info.(index.ErrorInfo); ok {
			unmintError = &info
		}
	}
	require.NotNil(t, unmintError)
	assert.Equal(t, index.ErrUnmintNotAllowed, unmintError.Err.Kind)

	entry = c.entry(id)
	assert.Equal(t, uint64(10), entry.State.Mints.Uint64())
	assert.True(t, entry.State.Unmints.IsZero())
}

func TestBlockCapClampsMints(t *testing.T) {
	c := newTestContext(t)
	id := relics.RelicID{Block: 50, Tx: 1}
	blockCap := uint32(2)
	entry := index.NewRelicEntry()
	spaced, err := relics.ParseSpacedRelic("BLOCKCAP")
	require.NoError(t, err)
	entry.SpacedRelic = spaced
	entry.MintTerms = &relics.MintTerms{
		Amount:   amount(1000),
		Cap:      amount(10),
		Price:    relics.FixedPrice(amount(5)),
		BlockCap: &blockCap,
	}
	require.NoError(t, c.store.PutRelicEntry(id, entry))

	mintTx := func(seed byte, count uint8) *wire.MsgTx {
		tx := wire.NewMsgTx(2)
		tx.AddTxIn(c.fund(seed, index.OutpointBalance{
			ID:     relics.BaseTokenID,
			Amount: amount(100_000),
		}))
		tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, seed)))
		tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
			Mint: &relics.MultiMint{
				Count:     count,
				BaseLimit: amount(100_000),
				Relic:     id,
			},
		})))
		return tx
	}

	// three requested, clamped to the block cap of two
	first := mintTx(90, 3)
	firstTxid := first.TxHash()
	c.indexTx(first)
	assert.Equal(t, uint64(2000), c.outBalance(firstTxid, 0, id).Uint64())

	entry = c.entry(id)
	assert.Equal(t, uint64(2), entry.State.Mints.Uint64())

	// the block cap is exhausted for this block
	second := mintTx(91, 1)
	secondTxid := second.TxHash()
	c.indexTx(second)
	c.commit()

	var mintError *index.ErrorInfo
	for _, event := range c.store.TransactionEvents(secondTxid) {
		if info, ok := event.Info.(index.ErrorInfo); ok {
			mintError = &info
		}
	}
	require.NotNil(t, mintError)
	assert.Equal(t, index.ErrMintBlockCapExceeded, mintError.Err.Kind)

	// a new block resets the counter
	c.newBlock()
	third := mintTx(92, 1)
	thirdTxid := third.TxHash()
	c.indexTx(third)
	c.commit()
	assert.Equal(t, uint64(1000), c.outBalance(thirdTxid, 0, id).Uint64())
}

func TestMintTargetsTokenEnshrinedInSameTx(t *testing.T) {
	c := newTestContext(t)

	// fund with plenty of base tokens
	spaced, err := relics.ParseSpacedRelic("SAMETXMINT")
	require.NoError(t, err)
	metadata, err := spaced.ToMetadata()
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	// enough for the 10-letter sealing fee plus two mints
	tx.AddTxIn(c.fund(95, index.OutpointBalance{
		ID:     relics.BaseTokenID,
		Amount: amount(2_000_000_000),
	}))
	tx.AddTxOut(wire.NewTxOut(10_000, p2pkhScript(t, 95)))
	tx.AddTxOut(wire.NewTxOut(0, keepsakeScript(t, &relics.Keepsake{
		Sealing: true,
		Enshrining: &relics.Enshrining{
			MintTerms: &relics.MintTerms{
				Amount: amount(1000),
				Cap:    amount(5),
				Price:  relics.FixedPrice(amount(5000)),
				Seed:   amount(5000),
			},
		},
		Mint: &relics.MultiMint{
			Count:     2,
			BaseLimit: amount(10_000),
			// the zero ID targets the token enshrined in this tx
			Relic: relics.RelicID{},
		},
	})))
	txid := tx.TxHash()
	inscriptionID := index.InscriptionID{Txid: txid, Index: 0}
	c.inscriptions.sequences[inscriptionID] = 9
	c.inscriptions.metadata[inscriptionID] = metadata
	c.inscriptions.txInscriptions[txid] = []index.TxInscription{
		{Sequence: 9, ID: inscriptionID},
	}
	c.indexTx(tx)
	c.commit()

	id := relics.RelicID{Block: uint64(c.height), Tx: 0}
	entry := c.entry(id)
	assert.Equal(t, uint64(2), entry.State.Mints.Uint64())
	assert.Equal(t, uint64(2000), c.outBalance(txid, 0, id).Uint64())
}
