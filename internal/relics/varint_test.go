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

package relics_test

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"

	"github.com/relicsprotocol/relicd/internal/relics"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []*uint256.Int{
		uint256.NewInt(0),
		uint256.NewInt(1),
		uint256.NewInt(127),
		uint256.NewInt(128),
		uint256.NewInt(255),
		uint256.NewInt(256),
		uint256.NewInt(16383),
		uint256.NewInt(16384),
		uint256.NewInt(1 << 32),
		uint256.NewInt(^uint64(0)),
		relics.MaxU128(),
	}
	for _, value := range values {
		encoded := relics.EncodeVarint(value, nil)
		decoded, length, err := relics.DecodeVarint(encoded)
		if err != nil {
			t.Fatalf("decode of %s failed: %s", value, err)
		}
		if length != len(encoded) {
			t.Errorf("decode of %s consumed %d of %d bytes", value, length, len(encoded))
		}
		if !decoded.Eq(value) {
			t.Errorf("round trip of %s returned %s", value, decoded)
		}
	}
}

func TestVarintEncodeSmall(t *testing.T) {
	if !bytes.Equal(relics.EncodeVarint(uint256.NewInt(0), nil), []byte{0}) {
		t.Errorf("zero should encode to a single zero byte")
	}
	if !bytes.Equal(relics.EncodeVarint(uint256.NewInt(128), nil), []byte{0x80, 0x01}) {
		t.Errorf("unexpected encoding for 128")
	}
	if !bytes.Equal(relics.EncodeVarintUint64(128, nil), []byte{0x80, 0x01}) {
		t.Errorf("unexpected uint64 encoding for 128")
	}
}

func TestVarintMaxU128Length(t *testing.T) {
	encoded := relics.EncodeVarint(relics.MaxU128(), nil)
	if len(encoded) != 19 {
		t.Errorf("u128 max should encode to 19 bytes, got %d", len(encoded))
	}
}

func TestVarintUnterminated(t *testing.T) {
	if _, _, err := relics.DecodeVarint([]byte{0x80}); err != relics.ErrVarintUnterminated {
		t.Errorf("expected unterminated error, got %v", err)
	}
	if _, _, err := relics.DecodeVarint(nil); err != relics.ErrVarintUnterminated {
		t.Errorf("expected unterminated error for empty input, got %v", err)
	}
}

func TestVarintOverlong(t *testing.T) {
	buf := bytes.Repeat([]byte{0x80}, 19)
	buf = append(buf, 0x80, 0x00)
	if _, _, err := relics.DecodeVarint(buf); err != relics.ErrVarintOverlong {
		t.Errorf("expected overlong error, got %v", err)
	}
}

func TestVarintOverflow(t *testing.T) {
	// 19th byte may only carry the low two data bits
	buf := bytes.Repeat([]byte{0x80}, 18)
	buf = append(buf, 0x04)
	if _, _, err := relics.DecodeVarint(buf); err != relics.ErrVarintOverflow {
		t.Errorf("expected overflow error, got %v", err)
	}
}

func TestVarintNonCanonicalStillDecodes(t *testing.T) {
	// non-shortest encodings decode to the same value; the encoder is
	// canonical but the decoder is permissive
	decoded, length, err := relics.DecodeVarint([]byte{0x80, 0x00})
	if err != nil {
		t.Fatalf("decode failed: %s", err)
	}
	if length != 2 || !decoded.IsZero() {
		t.Errorf("expected zero consuming 2 bytes, got %s consuming %d", decoded, length)
	}
}
