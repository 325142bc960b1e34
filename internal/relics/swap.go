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

// Swap is a token swap order. Input and Output default to the base token
// when nil. For an exact-input order InputAmount is the amount sold and
// OutputAmount the minimum acceptable proceeds; for an exact-output order
// OutputAmount is the amount bought and InputAmount the maximum spend.
type Swap struct {
	Input        *RelicID
	Output       *RelicID
	InputAmount  *uint256.Int
	OutputAmount *uint256.Int
	IsExactInput bool
}

// InputID returns the input token, defaulting to the base token.
func (s *Swap) InputID() RelicID {
	if s.Input != nil {
		return *s.Input
	}
	return BaseTokenID
}

// OutputID returns the output token, defaulting to the base token.
func (s *Swap) OutputID() RelicID {
	if s.Output != nil {
		return *s.Output
	}
	return BaseTokenID
}
