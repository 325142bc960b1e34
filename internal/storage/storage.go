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
	"strconv"
	"strings"

	"github.com/relicsprotocol/relicd/internal/config"
	"github.com/relicsprotocol/relicd/internal/index"

	"github.com/dgraph-io/badger/v4"
)

const (
	chainCursorKey = "chain_cursor"
)

type Storage struct {
	db *badger.DB
}

var globalStorage = &Storage{}

func (s *Storage) Load() error {
	cfg := config.GetConfig()
	badgerOpts := badger.DefaultOptions(cfg.Storage.Directory).
		WithLogger(NewBadgerLogger()).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return err
	}
	s.db = db
	// Make sure the base token exists before indexing anything
	block := s.BeginBlock()
	defer block.Discard()
	if err := index.EnsureBaseToken(block); err != nil {
		return err
	}
	return block.Commit()
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// GetStorage returns the global storage instance
func GetStorage() *Storage {
	return globalStorage
}

func (s *Storage) UpdateCursor(height uint32, blockHash string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		val := fmt.Sprintf("%d,%s", height, blockHash)
		return txn.Set([]byte(chainCursorKey), []byte(val))
	})
	return err
}

func (s *Storage) GetCursor() (uint32, string, error) {
	var height uint64
	var blockHash string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chainCursorKey))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			var err error
			cursorParts := strings.Split(string(v), ",")
			height, err = strconv.ParseUint(cursorParts[0], 10, 32)
			if err != nil {
				return err
			}
			blockHash = cursorParts[1]
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return 0, "", nil
	}
	return uint32(height), blockHash, err
}
