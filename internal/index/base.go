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
	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

const (
	// BaseTokenMintAmount is the base token amount credited per burned
	// inception inscription.
	BaseTokenMintAmount = 654_205_000_000

	// BaseTokenMintCap is the total number of inception burns.
	BaseTokenMintCap = 3210
)

// NewBaseTokenEntry returns the protocol-declared entry of the base token.
// The base token has no price: it is minted externally through the
// inception-inscription burn side channel.
func NewBaseTokenEntry() *RelicEntry {
	spaced, err := relics.ParseSpacedRelic(relics.BaseTokenName)
	if err != nil {
		panic(err)
	}
	symbol := '𝕄'
	entry := NewRelicEntry()
	entry.Block = relics.BaseTokenID.Block
	entry.SpacedRelic = spaced
	entry.Symbol = &symbol
	entry.MintTerms = &relics.MintTerms{
		Amount: uint256.NewInt(BaseTokenMintAmount),
		Cap:    uint256.NewInt(BaseTokenMintCap),
	}
	return entry
}

// EnsureBaseToken writes the base token entry and its name binding if they
// are not present yet.
func EnsureBaseToken(store StateStore) error {
	entry, err := store.RelicEntry(relics.BaseTokenID)
	if err != nil {
		return err
	}
	if entry != nil {
		return nil
	}
	base := NewBaseTokenEntry()
	if err := store.PutRelicEntry(relics.BaseTokenID, base); err != nil {
		return err
	}
	if err := store.PutRelicIDByName(base.SpacedRelic.Relic, relics.BaseTokenID); err != nil {
		return err
	}
	count, err := store.RelicCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return store.SetRelicCount(1)
	}
	return nil
}
