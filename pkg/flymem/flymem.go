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
Package flymem is the embedding API of the FlyMem in-memory SQL engine.

Usage:
======

	db, err := flymem.Open(nil)
	if err != nil {
	    return err
	}
	if err := db.None("CREATE TABLE users (id serial PRIMARY KEY, name text)"); err != nil {
	    return err
	}
	user, err := db.One("INSERT INTO users (name) VALUES ('ann'); SELECT * FROM users")

Call Shapes:
============

  - None runs the text and discards any rows.
  - One returns the single row of the last statement as a map.
  - Many returns every row of the last statement as maps.
  - Query returns the last result with typed column information.

Map keys are the output column names. When a name repeats, later columns
get a numeric suffix: id, id1, id2.

Values are plain Go values: bool, int64, float64, decimal.Decimal, string
(text and uuid), time.Time, and decoded JSON documents. SQL NULL is nil.

Thread Safety:
==============

A DB is safe for concurrent use. Calls are serialized; there is one
session per DB, so an explicit BEGIN is visible to every caller.
*/
package flymem

import (
	"strconv"
	"sync"

	"flymem/internal/config"
	"flymem/internal/engine"
	ferrors "flymem/internal/errors"
	"flymem/internal/executor"
	"flymem/internal/logging"
)

// Config is the engine configuration.
type Config = config.Config

// Error is the error type returned for every SQL failure.
type Error = ferrors.Error

// Stats holds engine counters and statement cache statistics.
type Stats = engine.Stats

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config { return config.DefaultConfig() }

// LoadConfig loads configuration from the default file locations and
// FLYMEM_ environment variables.
func LoadConfig() (*Config, error) {
	m := config.NewManager()
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m.Get(), nil
}

// DB is one in-memory database.
type DB struct {
	mu  sync.Mutex
	eng *engine.Engine
}

// Open creates an empty database. A nil cfg uses the defaults. Open applies
// the logging settings of cfg process-wide.
func Open(cfg *Config) (*DB, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Configure(cfg.Logging())
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	return &DB{eng: eng}, nil
}

// Column describes one result column.
type Column struct {
	Name string
	// Type is the SQL type name, e.g. "integer" or "text".
	Type string
}

// Result is the outcome of the last statement of a call.
type Result struct {
	// Command is the command tag, e.g. "INSERT" or "CREATE TABLE".
	Command string
	// RowCount is the number of rows affected or returned.
	RowCount int64
	Columns  []Column
	Rows     [][]any
	// Text holds the values as PostgreSQL prints them, NULL included.
	Text [][]string
}

// Keys returns the map keys of the columns. Repeated names get a numeric
// suffix that no real column uses.
func (r *Result) Keys() []string {
	keys := make([]string, len(r.Columns))
	reserved := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		reserved[c.Name] = true
	}
	used := make(map[string]bool, len(r.Columns))
	for i, c := range r.Columns {
		name := c.Name
		for n := 1; used[name] || (name != c.Name && reserved[name]); n++ {
			name = c.Name + strconv.Itoa(n)
		}
		used[name] = true
		keys[i] = name
	}
	return keys
}

// Maps returns the rows as maps keyed by Keys.
func (r *Result) Maps() []map[string]any {
	keys := r.Keys()
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(keys))
		for j, k := range keys {
			m[k] = row[j]
		}
		out[i] = m
	}
	return out
}

// exec runs text and returns the engine result of the last statement.
func (db *DB) exec(text string) (*executor.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.eng.Exec(text)
}

// Query runs text and returns the result of its last statement.
func (db *DB) Query(text string) (*Result, error) {
	res, err := db.exec(text)
	if err != nil {
		return nil, err
	}
	out := &Result{
		Command:  res.Command,
		RowCount: res.RowCount,
		Columns:  make([]Column, len(res.Columns)),
		Rows:     make([][]any, len(res.Rows)),
		Text:     make([][]string, len(res.Rows)),
	}
	for i, c := range res.Columns {
		out.Columns[i] = Column{Name: c.Name, Type: c.Type.Name()}
	}
	for i, row := range res.Rows {
		vals := make([]any, len(row.Values))
		text := make([]string, len(row.Values))
		for j, v := range row.Values {
			vals[j] = v.Go()
			text[j] = v.String()
		}
		out.Rows[i] = vals
		out.Text[i] = text
	}
	return out, nil
}

// None runs text and discards the result.
func (db *DB) None(text string) error {
	_, err := db.exec(text)
	return err
}

// Many runs text and returns the rows of its last statement.
func (db *DB) Many(text string) ([]map[string]any, error) {
	res, err := db.Query(text)
	if err != nil {
		return nil, err
	}
	return res.Maps(), nil
}

// One runs text and returns the single row of its last statement. Any
// other row count is an error.
func (db *DB) One(text string) (map[string]any, error) {
	res, err := db.Query(text)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) != 1 {
		return nil, ferrors.CardinalityViolation("exactly one row", len(res.Rows))
	}
	return res.Maps()[0], nil
}

// InTransaction reports whether an explicit transaction is open.
func (db *DB) InTransaction() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.eng.InTransaction()
}

// Stats returns engine statistics.
func (db *DB) Stats() Stats {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.eng.Stats()
}
