/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func setupLoggerTest(t *testing.T, level Level, jsonMode bool) (*bytes.Buffer, func()) {
	t.Helper()
	globalMu.RLock()
	saved := globalConfig
	globalMu.RUnlock()

	var buf bytes.Buffer
	Configure(Config{Level: level, Output: &buf, JSONMode: jsonMode})
	return &buf, func() { Configure(saved) }
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{" warning ", WARN},
		{"Error", ERROR},
		{"bogus", WARN},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	buf, cleanup := setupLoggerTest(t, WARN, false)
	defer cleanup()

	log := NewLogger("engine")
	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("shown", "b", 2, "a", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below WARN were written: %q", out)
	}
	if !strings.Contains(out, "[engine] shown a=1 b=2") {
		t.Errorf("unexpected text line: %q", out)
	}
}

func TestJSONMode(t *testing.T) {
	buf, cleanup := setupLoggerTest(t, DEBUG, true)
	defer cleanup()

	NewLogger("transaction").With("tx", 7).Debug("committed", "error", errors.New("none"))

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON line %q: %v", buf.String(), err)
	}
	if entry.Component != "transaction" || entry.Level != "DEBUG" || entry.Message != "committed" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["tx"] != float64(7) || entry.Fields["error"] != "none" {
		t.Errorf("unexpected fields: %+v", entry.Fields)
	}
}

func TestStatementContext(t *testing.T) {
	buf, cleanup := setupLoggerTest(t, DEBUG, false)
	defer cleanup()

	a := NewStatementContext("SELECT 1")
	b := NewStatementContext("SELECT 2")
	if b.ID <= a.ID {
		t.Errorf("statement IDs not increasing: %d then %d", a.ID, b.ID)
	}

	log := NewLogger("engine")
	a.LogComplete(log, "SELECT", "rows", 1)
	b.LogError(log, errors.New("boom"))
	out := buf.String()
	if !strings.Contains(out, "statement completed") || !strings.Contains(out, "statement failed") {
		t.Errorf("missing statement lines: %q", out)
	}
}
