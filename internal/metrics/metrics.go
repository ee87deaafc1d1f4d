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

/*
Package metrics provides engine statistics for FlyMem.

METRIC CATEGORIES:
==================
- Statements: executed (total, by command tag), failed
- Statement Latency: average execution time
- Transactions: explicit begins, commits, rollbacks, autocommits

Counters are per engine instance and safe for concurrent use.

TEXT FORMAT:
============
WriteText renders a snapshot in Prometheus text format, which the shell
prints for \stats:

	flymem_statements_total 12345
	flymem_statements_by_command_total{command="SELECT"} 1234
	flymem_statements_failed_total 3
	flymem_statement_latency_avg_microseconds 12.50
*/
package metrics

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the counters of one engine.
type Metrics struct {
	// Statement metrics
	StatementsTotal  atomic.Uint64 // Statements executed successfully
	StatementsFailed atomic.Uint64 // Statements that returned an error

	// Statement latency metrics (in microseconds)
	LatencySum   atomic.Uint64
	LatencyCount atomic.Uint64

	// Transaction metrics
	TransactionsBegun      atomic.Uint64
	TransactionsCommitted  atomic.Uint64
	TransactionsRolledBack atomic.Uint64
	Autocommits            atomic.Uint64

	// Per-command counters
	mu        sync.Mutex
	byCommand map[string]*atomic.Uint64
}

// New creates an empty set of counters.
func New() *Metrics {
	return &Metrics{byCommand: make(map[string]*atomic.Uint64)}
}

func (m *Metrics) commandCounter(command string) *atomic.Uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byCommand[command]
	if !ok {
		c = &atomic.Uint64{}
		m.byCommand[command] = c
	}
	return c
}

// RecordStatement records a successful statement.
func (m *Metrics) RecordStatement(command string, latency time.Duration) {
	m.StatementsTotal.Add(1)
	m.LatencySum.Add(uint64(latency.Microseconds()))
	m.LatencyCount.Add(1)
	m.commandCounter(command).Add(1)
}

// RecordFailure records a statement that returned an error.
func (m *Metrics) RecordFailure() {
	m.StatementsFailed.Add(1)
}

// AverageLatency returns the average statement latency in microseconds.
func (m *Metrics) AverageLatency() float64 {
	count := m.LatencyCount.Load()
	if count == 0 {
		return 0
	}
	return float64(m.LatencySum.Load()) / float64(count)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Statements             uint64
	Failed                 uint64
	ByCommand              map[string]uint64
	AverageLatencyMicros   float64
	TransactionsBegun      uint64
	TransactionsCommitted  uint64
	TransactionsRolledBack uint64
	Autocommits            uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Statements:             m.StatementsTotal.Load(),
		Failed:                 m.StatementsFailed.Load(),
		AverageLatencyMicros:   m.AverageLatency(),
		TransactionsBegun:      m.TransactionsBegun.Load(),
		TransactionsCommitted:  m.TransactionsCommitted.Load(),
		TransactionsRolledBack: m.TransactionsRolledBack.Load(),
		Autocommits:            m.Autocommits.Load(),
		ByCommand:              make(map[string]uint64),
	}
	m.mu.Lock()
	for cmd, c := range m.byCommand {
		s.ByCommand[cmd] = c.Load()
	}
	m.mu.Unlock()
	return s
}

// WriteText writes the snapshot in Prometheus text format.
func (s Snapshot) WriteText(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("# HELP flymem_statements_total Statements executed\n")
	printf("# TYPE flymem_statements_total counter\n")
	printf("flymem_statements_total %d\n", s.Statements)

	printf("# HELP flymem_statements_by_command_total Statements by command tag\n")
	printf("# TYPE flymem_statements_by_command_total counter\n")
	commands := make([]string, 0, len(s.ByCommand))
	for cmd := range s.ByCommand {
		commands = append(commands, cmd)
	}
	slices.Sort(commands)
	for _, cmd := range commands {
		printf("flymem_statements_by_command_total{command=%q} %d\n", cmd, s.ByCommand[cmd])
	}

	printf("# HELP flymem_statements_failed_total Failed statements\n")
	printf("# TYPE flymem_statements_failed_total counter\n")
	printf("flymem_statements_failed_total %d\n", s.Failed)

	printf("# HELP flymem_statement_latency_avg_microseconds Average statement latency\n")
	printf("# TYPE flymem_statement_latency_avg_microseconds gauge\n")
	printf("flymem_statement_latency_avg_microseconds %.2f\n", s.AverageLatencyMicros)

	printf("# HELP flymem_transactions_begun_total Explicit transactions started\n")
	printf("# TYPE flymem_transactions_begun_total counter\n")
	printf("flymem_transactions_begun_total %d\n", s.TransactionsBegun)

	printf("# HELP flymem_transactions_committed_total Explicit transactions committed\n")
	printf("# TYPE flymem_transactions_committed_total counter\n")
	printf("flymem_transactions_committed_total %d\n", s.TransactionsCommitted)

	printf("# HELP flymem_transactions_rolled_back_total Explicit transactions rolled back\n")
	printf("# TYPE flymem_transactions_rolled_back_total counter\n")
	printf("flymem_transactions_rolled_back_total %d\n", s.TransactionsRolledBack)

	printf("# HELP flymem_autocommits_total Statements committed outside an explicit transaction\n")
	printf("# TYPE flymem_autocommits_total counter\n")
	printf("flymem_autocommits_total %d\n", s.Autocommits)
	return err
}
