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

package indexer

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"github.com/relicsprotocol/relicd/internal/config"
	"github.com/relicsprotocol/relicd/internal/index"
	"github.com/relicsprotocol/relicd/internal/logging"
	"github.com/relicsprotocol/relicd/internal/relics"
	"github.com/relicsprotocol/relicd/internal/storage"
)

const syncStatusLogInterval = 30 * time.Second

// BlockSource provides blocks in chain order.
type BlockSource interface {
	BestHeight() (uint32, error)
	BlockHash(height uint32) (string, error)
	Block(height uint32) (*wire.MsgBlock, error)
}

// Indexer walks the chain and applies the protocol state transition block
// by block. Each block commits atomically.
type Indexer struct {
	source       BlockSource
	inscriptions index.InscriptionSource
	chainParams  *chaincfg.Params
	startHeight  uint32
	cursorHeight uint32
	cursorHash   string
	tipHeight    uint32
	tipReached   bool
	lastSyncLog  time.Time
	stopChan     chan struct{}
}

func New(source BlockSource, inscriptions index.InscriptionSource) *Indexer {
	return &Indexer{
		source:       source,
		inscriptions: inscriptions,
		stopChan:     make(chan struct{}),
	}
}

func (i *Indexer) Start() error {
	cfg := config.GetConfig()
	logger := logging.GetLogger()
	chainParams, err := cfg.ChainParams()
	if err != nil {
		return err
	}
	i.chainParams = chainParams
	i.startHeight = relics.FirstRelicHeight(cfg.Network)
	if cfg.Indexer.StartHeight > 0 {
		i.startHeight = cfg.Indexer.StartHeight
	}
	cursorHeight, cursorHash, err := storage.GetStorage().GetCursor()
	if err != nil {
		return err
	}
	i.cursorHeight = cursorHeight
	i.cursorHash = cursorHash
	if cursorHash != "" {
		logger.Info(
			"found previous chainsync cursor",
			"component", "indexer",
			"height", cursorHeight,
			"hash", cursorHash,
		)
	}
	pollInterval := time.Duration(cfg.Indexer.PollInterval) * time.Second
	if pollInterval == 0 {
		pollInterval = 15 * time.Second
	}
	go i.syncLoop(pollInterval)
	return nil
}

func (i *Indexer) Stop() {
	close(i.stopChan)
}

func (i *Indexer) syncLoop(pollInterval time.Duration) {
	logger := logging.GetLogger()
	for {
		select {
		case <-i.stopChan:
			return
		default:
		}
		if err := i.syncToTip(); err != nil {
			logger.Error(
				"sync error",
				"component", "indexer",
				"error", err,
			)
		}
		select {
		case <-i.stopChan:
			return
		case <-time.After(pollInterval):
		}
	}
}

func (i *Indexer) syncToTip() error {
	tip, err := i.source.BestHeight()
	if err != nil {
		return err
	}
	i.tipHeight = tip
	next := i.cursorHeight + 1
	if i.cursorHash == "" && i.startHeight > next {
		next = i.startHeight
	}
	for height := next; height <= tip; height++ {
		select {
		case <-i.stopChan:
			return nil
		default:
		}
		if err := i.indexBlock(height); err != nil {
			return fmt.Errorf("error indexing block %d: %w", height, err)
		}
		i.logSyncStatus(height)
	}
	if !i.tipReached && i.cursorHeight >= tip {
		i.tipReached = true
		logging.GetLogger().Info(
			"chain tip reached",
			"component", "indexer",
			"height", i.cursorHeight,
		)
	}
	return nil
}

// indexBlock applies one block as a single atomic unit: every transaction
// runs through the evaluator in order, then the block commits along with
// the updated cursor.
func (i *Indexer) indexBlock(height uint32) error {
	block, err := i.source.Block(height)
	if err != nil {
		return err
	}
	blockHash, err := i.source.BlockHash(height)
	if err != nil {
		return err
	}

	store := storage.GetStorage()
	blockTx := store.BeginBlock()
	defer blockTx.Discard()

	prevOuts := newPrevOutputCache(i.source, block)
	updater := index.NewUpdater(
		height,
		uint32(block.Header.Timestamp.Unix()),
		blockTx,
		i.inscriptions,
		prevOuts,
		i.chainParams,
	)
	for txIndex, tx := range block.Transactions {
		if err := updater.IndexTransaction(uint32(txIndex), tx); err != nil {
			return err
		}
	}
	if err := updater.Commit(); err != nil {
		return err
	}
	if err := blockTx.Commit(); err != nil {
		return err
	}
	if err := store.UpdateCursor(height, blockHash); err != nil {
		return err
	}
	i.cursorHeight = height
	i.cursorHash = blockHash
	return nil
}

func (i *Indexer) logSyncStatus(height uint32) {
	if time.Since(i.lastSyncLog) < syncStatusLogInterval {
		return
	}
	i.lastSyncLog = time.Now()
	logging.GetLogger().Info(
		"sync progress",
		"component", "indexer",
		"height", height,
		"tip", i.tipHeight,
	)
}
