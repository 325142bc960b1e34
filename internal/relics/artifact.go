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

// Artifact is the decoded form of a protocol-carrying transaction: either a
// well-formed Keepsake or a Cenotaph that burns all carried balances.
type Artifact interface {
	artifact()
}

// Cenotaph is a malformed protocol message. Its presence burns every input
// balance of the transaction.
type Cenotaph struct {
	Flaw Flaw
}

func (*Cenotaph) artifact() {}
func (*Keepsake) artifact() {}
