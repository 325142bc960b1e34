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
	"errors"
	"testing"

	"github.com/relicsprotocol/relicd/internal/relics"
)

func TestSpacedRelicDisplay(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"A.B", "A•B"},
		{"A.B.C", "A•B•C"},
		{"A•B", "A•B"},
		{"A•BC", "A•BC"},
		{"ABC", "ABC"},
	}
	for _, c := range cases {
		spaced, err := relics.ParseSpacedRelic(c.in)
		if err != nil {
			t.Fatalf("parsing %q failed: %s", c.in, err)
		}
		if spaced.String() != c.out {
			t.Errorf("%q should render as %q, got %q", c.in, c.out, spaced.String())
		}
	}
	// spacers beyond the last letter are not rendered
	single := relics.NewSpacedRelic(relics.NewRelic(0), 1)
	if single.String() != "A" {
		t.Errorf("expected A, got %q", single.String())
	}
}

func TestSpacedRelicSpacers(t *testing.T) {
	cases := []struct {
		in      string
		relic   string
		spacers uint32
	}{
		{"A.B", "AB", 0b1},
		{"A.B.C", "ABC", 0b11},
		{"A•B•C", "ABC", 0b11},
		{"A•BC", "ABC", 0b1},
	}
	for _, c := range cases {
		spaced, err := relics.ParseSpacedRelic(c.in)
		if err != nil {
			t.Fatalf("parsing %q failed: %s", c.in, err)
		}
		expected, err := relics.ParseRelic(c.relic)
		if err != nil {
			t.Fatal(err)
		}
		if spaced.Relic != expected || spaced.Spacers != c.spacers {
			t.Errorf(
				"parsing %q returned (%v, %b), expected (%v, %b)",
				c.in,
				spaced.Relic,
				spaced.Spacers,
				expected,
				c.spacers,
			)
		}
	}
}

func TestSpacedRelicParseErrors(t *testing.T) {
	cases := []struct {
		in  string
		err error
	}{
		{".A", relics.ErrLeadingSpacer},
		{"A..B", relics.ErrDoubleSpacer},
		{"A.", relics.ErrTrailingSpacer},
	}
	for _, c := range cases {
		_, err := relics.ParseSpacedRelic(c.in)
		if !errors.Is(err, c.err) {
			t.Errorf("parsing %q should fail with %v, got %v", c.in, c.err, err)
		}
	}
	if _, err := relics.ParseSpacedRelic("Ax"); err == nil {
		t.Errorf("parsing name with lowercase letter should fail")
	}
}

func TestSpacedRelicMetadataRoundTrip(t *testing.T) {
	spaced, err := relics.ParseSpacedRelic("BASIC•TEST•RELIC")
	if err != nil {
		t.Fatal(err)
	}
	metadata, err := spaced.ToMetadata()
	if err != nil {
		t.Fatalf("metadata encoding failed: %s", err)
	}
	decoded, ok := relics.FromMetadata(metadata)
	if !ok {
		t.Fatal("metadata decoding failed")
	}
	if decoded != spaced {
		t.Errorf("metadata round trip returned %v, expected %v", decoded, spaced)
	}
}

func TestFromMetadataRejectsGarbage(t *testing.T) {
	if _, ok := relics.FromMetadata([]byte{0xff, 0x00}); ok {
		t.Errorf("garbage metadata should not decode")
	}
	if _, ok := relics.FromMetadata(nil); ok {
		t.Errorf("empty metadata should not decode")
	}
}
