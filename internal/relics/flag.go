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

import "github.com/holiman/uint256"

type flag uint

const (
	flagSealing       flag = 1
	flagEnshrining    flag = 2
	flagMintTerms     flag = 3
	flagSwap          flag = 4
	flagSwapExactIn   flag = 5
	flagMultiMint     flag = 6
	flagBoostTerms    flag = 7
	flagCenotaph      flag = 127
)

func (f flag) mask() *uint256.Int {
	z := uint256.NewInt(1)
	return z.Lsh(z, uint(f))
}

// take reports whether the flag is set in flags and clears it.
func (f flag) take(flags *uint256.Int) bool {
	mask := f.mask()
	set := !new(uint256.Int).And(flags, mask).IsZero()
	flags.And(flags, new(uint256.Int).Not(mask))
	return set
}

func (f flag) set(flags *uint256.Int) {
	flags.Or(flags, f.mask())
}
