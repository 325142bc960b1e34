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

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/relicsprotocol/relicd/internal/config"
	"github.com/relicsprotocol/relicd/internal/indexer"
	"github.com/relicsprotocol/relicd/internal/logging"
	"github.com/relicsprotocol/relicd/internal/storage"
	"github.com/relicsprotocol/relicd/internal/version"

	_ "go.uber.org/automaxprocs"
)

const (
	programName = "relicd"
)

var cmdlineFlags struct {
	configFile string
	version    bool
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.BoolVar(&cmdlineFlags.version, "version", false, "show version")
	flag.Parse()

	if cmdlineFlags.version {
		fmt.Printf("%s %s\n", programName, version.GetVersionString())
		os.Exit(0)
	}

	// Load config
	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	// Configure logging
	logging.Configure()
	logger := logging.GetLogger()

	// Start debug listener
	if cfg.Debug.ListenPort > 0 {
		logger.Info(
			"starting debug listener",
			"address", cfg.Debug.ListenAddress,
			"port", cfg.Debug.ListenPort,
		)
		go func() {
			err := http.ListenAndServe(
				fmt.Sprintf("%s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort),
				nil,
			)
			if err != nil {
				logger.Error("failed to start debug listener", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Open storage
	if err := storage.GetStorage().Load(); err != nil {
		logger.Error("failed to load storage", "error", err)
		os.Exit(1)
	}

	// Connect to the chain node and start indexing
	source, err := indexer.NewRPCSource()
	if err != nil {
		logger.Error("failed to create block source", "error", err)
		os.Exit(1)
	}
	idx := indexer.New(source, indexer.NullInscriptionSource{})
	if err := idx.Start(); err != nil {
		logger.Error("failed to start indexer", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan
	logger.Info("shutting down")
	idx.Stop()
	if err := storage.GetStorage().Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}
