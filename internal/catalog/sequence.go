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

package catalog

import (
	"math"
	"strconv"

	ferrors "flymem/internal/errors"
	"flymem/internal/storage"
)

// SequenceDef describes a sequence to declare. A nil Start begins at 1
// (or -1 for a descending sequence); a zero Increment means 1.
type SequenceDef struct {
	Name      string
	Start     *int64
	Increment int64
}

// OwnerRef names the column a sequence belongs to.
type OwnerRef struct {
	Table  string
	Column string
}

// Sequence is a transactional counter. Its current value lives in the
// transaction under "seq:<id>"; the object itself is immutable apart from
// its owner link.
type Sequence struct {
	id        uint64
	name      string
	start     int64
	increment int64
	owner     *OwnerRef
}

func newSequence(id uint64, def SequenceDef) *Sequence {
	inc := def.Increment
	if inc == 0 {
		inc = 1
	}
	start := int64(1)
	if inc < 0 {
		start = -1
	}
	if def.Start != nil {
		start = *def.Start
	}
	return &Sequence{id: id, name: def.Name, start: start, increment: inc}
}

// Name implements Object.
func (s *Sequence) Name() string { return s.name }

// Kind implements Object.
func (s *Sequence) Kind() ObjectKind { return KindSequence }

// Owner returns the owning column, or nil for a free-standing sequence.
func (s *Sequence) Owner() *OwnerRef { return s.owner }

// Start returns the first value the sequence produces.
func (s *Sequence) Start() int64 { return s.start }

// Increment returns the step between values.
func (s *Sequence) Increment() int64 { return s.increment }

func (s *Sequence) key() string { return "seq:" + strconv.FormatUint(s.id, 10) }

// NextVal advances the sequence in tx and returns the new value.
func (s *Sequence) NextVal(tx *storage.Transaction) (int64, error) {
	next := s.start
	if cur, ok := storage.Lookup[int64](tx, s.key()); ok {
		if (s.increment > 0 && cur > math.MaxInt64-s.increment) ||
			(s.increment < 0 && cur < math.MinInt64-s.increment) {
			return 0, ferrors.NewQueryError("nextval: reached maximum value of sequence \"" + s.name + "\"")
		}
		next = cur + s.increment
	}
	tx.Set(s.key(), next)
	return next, nil
}

// CurrVal returns the last value produced in tx's view.
func (s *Sequence) CurrVal(tx *storage.Transaction) (int64, bool) {
	return storage.Lookup[int64](tx, s.key())
}
