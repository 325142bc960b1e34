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
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// MetadataKey is the key under which a ticker is carried in the CBOR
// metadata of a sealing inscription.
const MetadataKey = "RELIC"

var (
	ErrLeadingSpacer  = errors.New("leading spacer")
	ErrTrailingSpacer = errors.New("trailing spacer")
	ErrDoubleSpacer   = errors.New("double spacer")
)

// SpacedRelic is a Relic name plus a display-only spacer bitmask. Bit i set
// places a bullet between letters i and i+1.
type SpacedRelic struct {
	Relic   Relic
	Spacers uint32
}

// NewSpacedRelic constructs a SpacedRelic.
func NewSpacedRelic(relic Relic, spacers uint32) SpacedRelic {
	return SpacedRelic{Relic: relic, Spacers: spacers}
}

// ParseSpacedRelic parses a ticker with optional "." or the canonical
// bullet spacers between letters.
func ParseSpacedRelic(s string) (SpacedRelic, error) {
	var letters strings.Builder
	var spacers uint32
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
			letters.WriteRune(c)
		case c == '.' || c == '•':
			if letters.Len() == 0 {
				return SpacedRelic{}, ErrLeadingSpacer
			}
			flag := uint32(1) << (letters.Len() - 1)
			if spacers&flag != 0 {
				return SpacedRelic{}, ErrDoubleSpacer
			}
			spacers |= flag
		default:
			return SpacedRelic{}, fmt.Errorf("invalid character in spaced relic name: %q", c)
		}
	}
	if letters.Len() == 0 {
		return SpacedRelic{}, errors.New("empty relic name")
	}
	if spacers != 0 && spacers >= uint32(1)<<(letters.Len()-1) {
		return SpacedRelic{}, ErrTrailingSpacer
	}
	relic, err := ParseRelic(letters.String())
	if err != nil {
		return SpacedRelic{}, err
	}
	return SpacedRelic{Relic: relic, Spacers: spacers}, nil
}

func (s SpacedRelic) String() string {
	name := s.Relic.String()
	var b strings.Builder
	for i, c := range name {
		b.WriteRune(c)
		if i < len(name)-1 && s.Spacers&(1<<i) != 0 {
			b.WriteRune('•')
		}
	}
	return b.String()
}

// FromMetadata extracts a ticker from raw CBOR inscription metadata. The
// metadata must be a map with a text value under MetadataKey.
func FromMetadata(raw []byte) (SpacedRelic, bool) {
	var metadata map[string]interface{}
	if err := cbor.Unmarshal(raw, &metadata); err != nil {
		return SpacedRelic{}, false
	}
	value, ok := metadata[MetadataKey]
	if !ok {
		return SpacedRelic{}, false
	}
	text, ok := value.(string)
	if !ok {
		return SpacedRelic{}, false
	}
	spaced, err := ParseSpacedRelic(text)
	if err != nil {
		return SpacedRelic{}, false
	}
	return spaced, true
}

// ToMetadata renders the ticker as CBOR inscription metadata.
func (s SpacedRelic) ToMetadata() ([]byte, error) {
	return cbor.Marshal(map[string]string{MetadataKey: s.String()})
}
