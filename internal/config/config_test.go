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

package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg := GetConfig()
	if cfg.Network != "mainnet" {
		t.Errorf("default network should be mainnet, got %s", cfg.Network)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level should be info, got %s", cfg.Logging.Level)
	}
	if cfg.Storage.Directory == "" {
		t.Errorf("default storage directory should be set")
	}
}

func TestChainParams(t *testing.T) {
	for _, network := range []string{"mainnet", "testnet", "signet", "regtest"} {
		cfg := &Config{Network: network}
		if _, err := cfg.ChainParams(); err != nil {
			t.Errorf("network %s should resolve: %s", network, err)
		}
	}
	cfg := &Config{Network: "floonet"}
	if _, err := cfg.ChainParams(); err == nil {
		t.Errorf("unknown network should fail")
	}
}
