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

package storage

import (
	"fmt"
	"strings"

	"github.com/relicsprotocol/relicd/internal/logging"
)

// BadgerLogger forwards badger's internal logging to our logger
type BadgerLogger struct{}

func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{}
}

func (b *BadgerLogger) log(msg string, args ...any) string {
	return strings.TrimSuffix(fmt.Sprintf(msg, args...), "\n")
}

func (b *BadgerLogger) Errorf(msg string, args ...any) {
	logging.GetLogger().Error(b.log(msg, args...), "component", "storage")
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	logging.GetLogger().Warn(b.log(msg, args...), "component", "storage")
}

func (b *BadgerLogger) Infof(msg string, args ...any) {
	logging.GetLogger().Info(b.log(msg, args...), "component", "storage")
}

func (b *BadgerLogger) Debugf(msg string, args ...any) {
	logging.GetLogger().Debug(b.log(msg, args...), "component", "storage")
}
