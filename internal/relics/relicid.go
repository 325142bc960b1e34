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
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// RelicID identifies a token by the block and intra-block transaction index
// of its enshrining.
type RelicID struct {
	Block uint64
	Tx    uint32
}

// BaseTokenID is the distinguished ID of the base token.
var BaseTokenID = RelicID{Block: 1, Tx: 0}

// BaseTokenName is the ticker of the base token.
const BaseTokenName = "MBTC"

// InceptionParentInscriptionID identifies the parent inscription whose
// burned children mint the base token.
const InceptionParentInscriptionID = "4e00929ef9849c20364d331e9b25d40b2f2f2ef8081d3cc769fd83c78d075f05i0"

// NewRelicID constructs a RelicID, rejecting the invalid zero-block,
// non-zero-tx combination.
func NewRelicID(block uint64, tx uint32) (RelicID, bool) {
	if block == 0 && tx > 0 {
		return RelicID{}, false
	}
	return RelicID{Block: block, Tx: tx}, true
}

// Next applies a delta-encoded ID step: a non-zero block delta resets the
// transaction index, a zero block delta advances it.
func (id RelicID) Next(blockDelta, txDelta *uint256.Int) (RelicID, bool) {
	if !blockDelta.IsUint64() || !txDelta.IsUint64() {
		return RelicID{}, false
	}
	bd := blockDelta.Uint64()
	td := txDelta.Uint64()
	if td > uint64(^uint32(0)) {
		return RelicID{}, false
	}
	block := id.Block + bd
	if block < id.Block {
		return RelicID{}, false
	}
	var tx uint32
	if bd == 0 {
		tx = id.Tx + uint32(td)
		if tx < id.Tx {
			return RelicID{}, false
		}
	} else {
		tx = uint32(td)
	}
	return NewRelicID(block, tx)
}

// Delta returns the delta encoding of next relative to id. The caller must
// present IDs in ascending order.
func (id RelicID) Delta(next RelicID) (uint64, uint32) {
	block := next.Block - id.Block
	if block == 0 {
		return 0, next.Tx - id.Tx
	}
	return block, next.Tx
}

// Cmp orders IDs by block, then transaction index.
func (id RelicID) Cmp(other RelicID) int {
	switch {
	case id.Block < other.Block:
		return -1
	case id.Block > other.Block:
		return 1
	case id.Tx < other.Tx:
		return -1
	case id.Tx > other.Tx:
		return 1
	default:
		return 0
	}
}

func (id RelicID) String() string {
	return fmt.Sprintf("%d:%d", id.Block, id.Tx)
}

// ParseRelicID parses the "block:tx" form.
func ParseRelicID(s string) (RelicID, error) {
	block, tx, found := strings.Cut(s, ":")
	if !found {
		return RelicID{}, fmt.Errorf("invalid relic ID: %s", s)
	}
	blockNum, err := strconv.ParseUint(block, 10, 64)
	if err != nil {
		return RelicID{}, fmt.Errorf("invalid relic ID block: %s", err)
	}
	txNum, err := strconv.ParseUint(tx, 10, 32)
	if err != nil {
		return RelicID{}, fmt.Errorf("invalid relic ID tx: %s", err)
	}
	id, ok := NewRelicID(blockNum, uint32(txNum))
	if !ok {
		return RelicID{}, fmt.Errorf("invalid relic ID: %s", s)
	}
	return id, nil
}
