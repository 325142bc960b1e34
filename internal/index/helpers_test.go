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

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/relicsprotocol/relicd/internal/index"
	"github.com/relicsprotocol/relicd/internal/relics"
)

// fakeInscriptions is a canned InscriptionSource.
type fakeInscriptions struct {
	sequences      map[index.InscriptionID]uint32
	metadata       map[index.InscriptionID][]byte
	txInscriptions map[chainhash.Hash][]index.TxInscription
	ownerScripts   map[uint32][]byte
}

func newFakeInscriptions() *fakeInscriptions {
	return &fakeInscriptions{
		sequences:      make(map[index.InscriptionID]uint32),
		metadata:       make(map[index.InscriptionID][]byte),
		txInscriptions: make(map[chainhash.Hash][]index.TxInscription),
		ownerScripts:   make(map[uint32][]byte),
	}
}

func (f *fakeInscriptions) SequenceNumber(id index.InscriptionID) (uint32, bool, error) {
	sequence, ok := f.sequences[id]
	return sequence, ok, nil
}

func (f *fakeInscriptions) Metadata(id index.InscriptionID) ([]byte, bool, error) {
	metadata, ok := f.metadata[id]
	return metadata, ok, nil
}

func (f *fakeInscriptions) TransactionInscriptions(txid chainhash.Hash) ([]index.TxInscription, error) {
	return f.txInscriptions[txid], nil
}

func (f *fakeInscriptions) OwnerScript(sequence uint32) ([]byte, bool, error) {
	script, ok := f.ownerScripts[sequence]
	return script, ok, nil
}

// testContext drives the evaluator over hand-built transactions against an
// in-memory state.
type testContext struct {
	t            *testing.T
	store        *index.MemStore
	inscriptions *fakeInscriptions
	prevOuts     *txscript.MultiPrevOutFetcher
	height       uint32
	txIndex      uint32
	updater      *index.Updater
}

func newTestContext(t *testing.T) *testContext {
	c := &testContext{
		t:            t,
		store:        index.NewMemStore(),
		inscriptions: newFakeInscriptions(),
		prevOuts:     txscript.NewMultiPrevOutFetcher(make(map[wire.OutPoint]*wire.TxOut)),
		height:       100,
	}
	require.NoError(t, index.EnsureBaseToken(c.store))
	c.newBlock()
	return c
}

// newBlock starts the next block, committing the previous updater state.
func (c *testContext) newBlock() {
	if c.updater != nil {
		require.NoError(c.t, c.updater.Commit())
	}
	c.height++
	c.txIndex = 0
	c.updater = index.NewUpdater(
		c.height,
		c.height*600,
		c.store,
		c.inscriptions,
		c.prevOuts,
		&chaincfg.RegressionNetParams,
	)
}

func (c *testContext) indexTx(tx *wire.MsgTx) {
	require.NoError(c.t, c.updater.IndexTransaction(c.txIndex, tx))
	c.txIndex++
}

// commit flushes the current block's accumulators without advancing.
func (c *testContext) commit() {
	require.NoError(c.t, c.updater.Commit())
	c.updater = nil
}

func (c *testContext) entry(id relics.RelicID) *index.RelicEntry {
	entry, err := c.store.RelicEntry(id)
	require.NoError(c.t, err)
	require.NotNil(c.t, entry, "missing entry for %s", id)
	return entry
}

// fund places balances on a fresh outpoint of a prior block and returns
// the input pointing at it.
func (c *testContext) fund(seed byte, balances ...index.OutpointBalance) *wire.TxIn {
	var hash chainhash.Hash
	for i := range hash {
		hash[i] = seed
	}
	outpoint := wire.OutPoint{Hash: hash, Index: 0}
	require.NoError(c.t, c.store.PutOutpointBalances(outpoint, balances))
	c.prevOuts.AddPrevOut(outpoint, wire.NewTxOut(10_000, p2pkhScript(c.t, seed)))
	return wire.NewTxIn(&outpoint, nil, nil)
}

func p2pkhScript(t *testing.T, seed byte) []byte {
	t.Helper()
	var hash [20]byte
	for i := range hash {
		hash[i] = seed
	}
	addr, err := btcutil.NewAddressPubKeyHash(hash[:], &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

func keepsakeScript(t *testing.T, keepsake *relics.Keepsake) []byte {
	t.Helper()
	script, err := keepsake.Encipher()
	require.NoError(t, err)
	return script
}

func amount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func u32p(v uint32) *uint32 { return &v }
func u16p(v uint16) *uint16 { return &v }

// outBalance reads the balance of one token on an outpoint.
func (c *testContext) outBalance(txid chainhash.Hash, vout uint32, id relics.RelicID) *uint256.Int {
	balances, err := c.store.OutpointBalances(wire.OutPoint{Hash: txid, Index: vout})
	require.NoError(c.t, err)
	for _, balance := range balances {
		if balance.ID == id {
			return balance.Amount
		}
	}
	return uint256.NewInt(0)
}

// registerBaseMint marks n burned inception inscriptions on a transaction.
func (c *testContext) registerBaseMint(txid chainhash.Hash, n int) {
	var inscriptions []index.TxInscription
	for i := 0; i < n; i++ {
		inscriptions = append(inscriptions, index.TxInscription{
			Sequence:        uint32(i),
			ID:              index.InscriptionID{Txid: txid, Index: uint32(i)},
			Burned:          true,
			InceptionParent: true,
		})
	}
	c.inscriptions.txInscriptions[txid] = inscriptions
}

// enshrineTestToken creates a ready-made token entry with a bootstrapped
// pool, bypassing the mint flow.
func (c *testContext) enshrineTestToken(
	id relics.RelicID,
	name string,
	pool *relics.Pool,
	ownerSequence *uint32,
) *index.RelicEntry {
	spaced, err := relics.ParseSpacedRelic(name)
	require.NoError(c.t, err)
	entry := index.NewRelicEntry()
	entry.Block = id.Block
	entry.SpacedRelic = spaced
	entry.MintTerms = &relics.MintTerms{
		Amount: amount(1000),
		Cap:    amount(1),
		Price:  relics.FixedPrice(amount(5000)),
		Seed:   amount(1000),
	}
	entry.State.Mints = amount(1)
	entry.Pool = pool
	entry.OwnerSequence = ownerSequence
	require.NoError(c.t, c.store.PutRelicEntry(id, entry))
	require.NoError(c.t, c.store.PutRelicIDByName(spaced.Relic, id))
	return entry
}
