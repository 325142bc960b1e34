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
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
)

// Transfer routes an amount of a token to a transaction output.
//
// Amount 0 means "all remaining". An output equal to the number of
// transaction outputs splits the amount across all non-OP_RETURN outputs;
// with amount 0 the remainder is divided between them. The zero RelicID
// targets the token enshrined in the same transaction.
type Transfer struct {
	ID     RelicID
	Amount *uint256.Int
	Output uint32
}

func transferFromIntegers(tx *wire.MsgTx, id RelicID, amount, output *uint256.Int) (Transfer, bool) {
	if !output.IsUint64() || output.Uint64() > uint64(^uint32(0)) {
		return Transfer{}, false
	}
	vout := uint32(output.Uint64())
	// vout == len(tx.TxOut) is allowed and means a split across all
	// non-OP_RETURN outputs
	if vout > uint32(len(tx.TxOut)) {
		return Transfer{}, false
	}
	return Transfer{
		ID:     id,
		Amount: new(uint256.Int).Set(amount),
		Output: vout,
	}, true
}
