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

package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestRecordStatement(t *testing.T) {
	m := New()
	m.RecordStatement("SELECT", 10*time.Microsecond)
	m.RecordStatement("SELECT", 30*time.Microsecond)
	m.RecordStatement("INSERT", 20*time.Microsecond)
	m.RecordFailure()
	m.TransactionsBegun.Add(1)
	m.TransactionsCommitted.Add(1)

	s := m.Snapshot()
	if s.Statements != 3 || s.Failed != 1 {
		t.Errorf("Expected 3 statements and 1 failure, got %d and %d", s.Statements, s.Failed)
	}
	if s.ByCommand["SELECT"] != 2 || s.ByCommand["INSERT"] != 1 {
		t.Errorf("Unexpected per-command counts %v", s.ByCommand)
	}
	if s.AverageLatencyMicros != 20 {
		t.Errorf("Expected average latency 20, got %f", s.AverageLatencyMicros)
	}
	if s.TransactionsBegun != 1 || s.TransactionsCommitted != 1 || s.TransactionsRolledBack != 0 {
		t.Errorf("Unexpected transaction counts %+v", s)
	}
}

func TestAverageLatencyEmpty(t *testing.T) {
	if avg := New().AverageLatency(); avg != 0 {
		t.Errorf("Expected 0, got %f", avg)
	}
}

func TestWriteText(t *testing.T) {
	m := New()
	m.RecordStatement("UPDATE", time.Microsecond)
	m.RecordStatement("CREATE TABLE", time.Microsecond)

	var b strings.Builder
	if err := m.Snapshot().WriteText(&b); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		"flymem_statements_total 2\n",
		"flymem_statements_by_command_total{command=\"CREATE TABLE\"} 1\n",
		"flymem_statements_by_command_total{command=\"UPDATE\"} 1\n",
		"flymem_statements_failed_total 0\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "CREATE TABLE") > strings.Index(out, "\"UPDATE\"") {
		t.Error("Commands should be written in sorted order")
	}
}
