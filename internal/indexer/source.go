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
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/relicsprotocol/relicd/internal/config"
	"github.com/relicsprotocol/relicd/internal/index"
)

// RPCSource reads blocks and transactions from a bitcoind-compatible node.
// The node must run with txindex for prevout resolution.
type RPCSource struct {
	client *rpcclient.Client
}

func NewRPCSource() (*RPCSource, error) {
	cfg := config.GetConfig()
	host := strings.TrimPrefix(cfg.Indexer.RpcUrl, "http://")
	host = strings.TrimPrefix(host, "https://")
	client, err := rpcclient.New(
		&rpcclient.ConnConfig{
			Host:         host,
			User:         cfg.Indexer.RpcUser,
			Pass:         cfg.Indexer.RpcPass,
			HTTPPostMode: true,
			DisableTLS:   strings.HasPrefix(cfg.Indexer.RpcUrl, "http://"),
		},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating RPC client: %s", err)
	}
	return &RPCSource{client: client}, nil
}

func (s *RPCSource) BestHeight() (uint32, error) {
	count, err := s.client.GetBlockCount()
	if err != nil {
		return 0, err
	}
	return uint32(count), nil
}

func (s *RPCSource) BlockHash(height uint32) (string, error) {
	hash, err := s.client.GetBlockHash(int64(height))
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

func (s *RPCSource) Block(height uint32) (*wire.MsgBlock, error) {
	hash, err := s.client.GetBlockHash(int64(height))
	if err != nil {
		return nil, err
	}
	return s.client.GetBlock(hash)
}

func (s *RPCSource) transactionOutput(outpoint wire.OutPoint) *wire.TxOut {
	tx, err := s.client.GetRawTransaction(&outpoint.Hash)
	if err != nil {
		return nil
	}
	outputs := tx.MsgTx().TxOut
	if outpoint.Index >= uint32(len(outputs)) {
		return nil
	}
	return outputs[outpoint.Index]
}

// prevOutputCache resolves spent outputs, preferring outputs created
// earlier in the same block over RPC lookups.
type prevOutputCache struct {
	source  BlockSource
	outputs map[wire.OutPoint]*wire.TxOut
}

func newPrevOutputCache(source BlockSource, block *wire.MsgBlock) *prevOutputCache {
	cache := &prevOutputCache{
		source:  source,
		outputs: make(map[wire.OutPoint]*wire.TxOut),
	}
	for _, tx := range block.Transactions {
		txid := tx.TxHash()
		for vout, txOut := range tx.TxOut {
			cache.outputs[wire.OutPoint{Hash: txid, Index: uint32(vout)}] = txOut
		}
	}
	return cache
}

func (c *prevOutputCache) FetchPrevOutput(outpoint wire.OutPoint) *wire.TxOut {
	if txOut, ok := c.outputs[outpoint]; ok {
		return txOut
	}
	if rpc, ok := c.source.(*RPCSource); ok {
		return rpc.transactionOutput(outpoint)
	}
	return nil
}

// NullInscriptionSource is the integration point for an inscription
// indexer. Without one, sealing, enshrining, and base token minting are
// inert; transfer, swap, and claim indexing still run.
type NullInscriptionSource struct{}

func (NullInscriptionSource) SequenceNumber(id index.InscriptionID) (uint32, bool, error) {
	return 0, false, nil
}

func (NullInscriptionSource) Metadata(id index.InscriptionID) ([]byte, bool, error) {
	return nil, false, nil
}

func (NullInscriptionSource) TransactionInscriptions(txid chainhash.Hash) ([]index.TxInscription, error) {
	return nil, nil
}

func (NullInscriptionSource) OwnerScript(sequence uint32) ([]byte, bool, error) {
	return nil, false, nil
}
