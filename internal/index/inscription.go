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
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// InscriptionID identifies an inscription by its reveal transaction and
// envelope index.
type InscriptionID struct {
	Txid  chainhash.Hash
	Index uint32
}

func (id InscriptionID) String() string {
	return fmt.Sprintf("%si%d", id.Txid, id.Index)
}

// ParseInscriptionID parses the "<txid>i<index>" form.
func ParseInscriptionID(s string) (InscriptionID, error) {
	txid, index, found := strings.Cut(s, "i")
	if !found {
		return InscriptionID{}, fmt.Errorf("invalid inscription ID: %s", s)
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return InscriptionID{}, fmt.Errorf("invalid inscription ID txid: %s", err)
	}
	idx, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return InscriptionID{}, fmt.Errorf("invalid inscription ID index: %s", err)
	}
	return InscriptionID{Txid: *hash, Index: uint32(idx)}, nil
}

// TxInscription is an inscription that landed on the outputs of a
// transaction, as seen after the inscription indexer processed it.
type TxInscription struct {
	Sequence uint32
	ID       InscriptionID
	// the inscription was burned in this transaction
	Burned bool
	// the inscription is a child of the inception parent
	InceptionParent bool
}

// InscriptionSource resolves inscriptions for the evaluator. It is a
// consistent snapshot of the inscription index at the current block; the
// implementation must only surface reveals whose commitment satisfies
// relics.CommitConfirmations.
type InscriptionSource interface {
	// SequenceNumber resolves an inscription ID to its global sequence
	// number.
	SequenceNumber(id InscriptionID) (uint32, bool, error)
	// Metadata returns the raw CBOR metadata of an inscription.
	Metadata(id InscriptionID) ([]byte, bool, error)
	// TransactionInscriptions lists the inscriptions on the outputs of
	// a transaction.
	TransactionInscriptions(txid chainhash.Hash) ([]TxInscription, error)
	// OwnerScript returns the locking script currently holding an
	// inscription, if it is bound to an output.
	OwnerScript(sequence uint32) ([]byte, bool, error)
}
