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

package types

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation names the text comparison rules of a TEXT type.
type Collation string

const (
	// CollationDefault compares strings byte-wise (UTF-8 code point order).
	CollationDefault Collation = "default"
	// CollationBinary compares raw bytes. It behaves like the default and
	// exists so configuration can name it explicitly.
	CollationBinary Collation = "binary"
	// CollationNocase compares strings after lower-casing them.
	CollationNocase Collation = "nocase"
	// CollationUnicode compares strings with the Unicode Collation
	// Algorithm for a locale.
	CollationUnicode Collation = "unicode"
)

// Collator defines text comparison for one collation.
//
// Key must return equal strings exactly when Compare returns 0. It is used
// wherever values are hashed (DISTINCT, uniqueness probes).
type Collator interface {
	Name() Collation
	Compare(a, b string) int
	Key(s string) string
}

type byteCollator struct {
	name Collation
}

func (c byteCollator) Name() Collation         { return c.name }
func (c byteCollator) Compare(a, b string) int { return strings.Compare(a, b) }
func (c byteCollator) Key(s string) string     { return s }

type nocaseCollator struct{}

func (nocaseCollator) Name() Collation { return CollationNocase }

func (nocaseCollator) Compare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func (nocaseCollator) Key(s string) string { return strings.ToLower(s) }

// UnicodeCollator compares strings with golang.org/x/text/collate.
// The underlying collator keeps internal buffers, so access is serialized.
type UnicodeCollator struct {
	mu       sync.Mutex
	collator *collate.Collator
	buf      collate.Buffer
	locale   string
}

// NewUnicodeCollator creates a collator for locale. An unknown locale
// falls back to English.
func NewUnicodeCollator(locale string) *UnicodeCollator {
	tag := language.Make(locale)
	if tag == language.Und {
		tag = language.English
	}
	return &UnicodeCollator{
		collator: collate.New(tag, collate.Loose),
		locale:   locale,
	}
}

// Name implements Collator.
func (c *UnicodeCollator) Name() Collation { return CollationUnicode }

// Locale returns the locale the collator was built for.
func (c *UnicodeCollator) Locale() string { return c.locale }

// Compare implements Collator.
func (c *UnicodeCollator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collator.CompareString(a, b)
}

// Key implements Collator using the collation sort key.
func (c *UnicodeCollator) Key(s string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := string(c.collator.KeyFromString(&c.buf, s))
	c.buf.Reset()
	return key
}

// DefaultCollator is the collator of the process-wide Text type.
var DefaultCollator Collator = byteCollator{name: CollationDefault}

// NewCollator returns the collator for a collation name.
func NewCollator(name Collation, locale string) (Collator, error) {
	switch Collation(strings.ToLower(string(name))) {
	case CollationDefault, "":
		return DefaultCollator, nil
	case CollationBinary:
		return byteCollator{name: CollationBinary}, nil
	case CollationNocase:
		return nocaseCollator{}, nil
	case CollationUnicode:
		return NewUnicodeCollator(locale), nil
	default:
		return nil, fmt.Errorf("unknown collation: %s", name)
	}
}
