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
Package sql contains the Lexer component for SQL tokenization.

Lexer Overview:
===============

The Lexer is the first stage of the SQL processing pipeline. It turns a
raw SQL string into a stream of tokens for the Parser.

	Input: "SELECT name FROM users WHERE id = 1"

	Output Tokens:
	  1. {TokenKeyword, "SELECT"}
	  2. {TokenIdent, "name"}
	  3. {TokenKeyword, "FROM"}
	  4. {TokenIdent, "users"}
	  5. {TokenKeyword, "WHERE"}
	  6. {TokenIdent, "id"}
	  7. {TokenOperator, "="}
	  8. {TokenNumber, "1"}
	  9. {TokenEOF, ""}

Keywords:
=========

Only reserved words are returned as TokenKeyword (upper-cased). Words with
a meaning in one clause only (FIRST, LAST, KEY, START, ...) stay
identifiers, so they remain usable as column names; the parser matches
them by value.

Identifier Rules:
=================

Unquoted identifiers are folded to lower case. Double-quoted identifiers
keep their case and may contain any character; "" inside quotes is a
literal quote.

String Literals:
================

String literals are enclosed in single quotes. Two consecutive quotes
inside a literal stand for one quote. A missing closing quote is reported as TokenIllegal.

Comments:
=========

Line comments (-- to end of line) and block comments are skipped.
*/
package sql

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF       TokenType = iota // End of input
	TokenIllegal                    // Unrecognized input; Value holds the message
	TokenIdent                      // Identifier (table name, column name)
	TokenString                     // String literal ('hello')
	TokenNumber                     // Numeric literal (123, 1.5, 2e10)
	TokenKeyword                    // Reserved word (SELECT, FROM, etc.)
	TokenOperator                   // Operator (= <> + || -> :: ...)
	TokenComma                      // ,
	TokenLParen                     // (
	TokenRParen                     // )
	TokenDot                        // .
	TokenSemicolon                  // ;
	TokenStar                       // *
)

var tokenNames = [...]string{
	TokenEOF:       "end of input",
	TokenIllegal:   "illegal token",
	TokenIdent:     "identifier",
	TokenString:    "string",
	TokenNumber:    "number",
	TokenKeyword:   "keyword",
	TokenOperator:  "operator",
	TokenComma:     "\",\"",
	TokenLParen:    "\"(\"",
	TokenRParen:    "\")\"",
	TokenDot:       "\".\"",
	TokenSemicolon: "\";\"",
	TokenStar:      "\"*\"",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "unknown"
}

// Token represents a single lexical unit from the input.
type Token struct {
	Type  TokenType
	Value string
	// Pos is the byte offset of the token in the input.
	Pos int
	// Quoted marks a double-quoted identifier.
	Quoted bool
}

// keywords are the reserved words of the dialect.
var keywords = map[string]bool{
	"ALL": true, "AND": true, "AS": true, "ASC": true, "BEGIN": true,
	"BETWEEN": true, "BY": true, "CASCADE": true, "CAST": true,
	"COMMIT": true, "CREATE": true, "CROSS": true, "DEFAULT": true,
	"DELETE": true, "DESC": true, "DISTINCT": true, "DROP": true,
	"EXISTS": true, "FALSE": true, "FROM": true, "IF": true, "IN": true,
	"INDEX": true, "INNER": true, "INSERT": true, "INTO": true, "IS": true,
	"JOIN": true, "LEFT": true, "LIMIT": true, "NOT": true, "NULL": true,
	"OFFSET": true, "ON": true, "OR": true, "ORDER": true, "OUTER": true,
	"PRIMARY": true, "RESTRICT": true, "RIGHT": true, "ROLLBACK": true,
	"SELECT": true, "SEQUENCE": true, "SET": true, "TABLE": true,
	"TRUE": true, "UNIQUE": true, "UPDATE": true, "VALUES": true,
	"WHERE": true,
}

// operators lists multi-character operators, longest first.
var operators = []string{"->>", "<>", "!=", "<=", ">=", "||", "::", "->", "=", "<", ">", "+", "-", "/", "%"}

// Lexer transforms an input string into a stream of tokens.
//
// The Lexer is stateful - each call to NextToken() advances the position
// in the input string.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new Lexer for the given input string.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken skips whitespace and comments and returns the next token.
// At the end of input it returns TokenEOF, repeatedly.
func (l *Lexer) NextToken() Token {
	if msg := l.skipWhitespace(); msg != "" {
		return Token{Type: TokenIllegal, Value: msg, Pos: l.pos}
	}
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])

	switch {
	case unicode.IsLetter(r) || r == '_':
		for l.pos < len(l.input) {
			r, size := utf8.DecodeRuneInString(l.input[l.pos:])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
				break
			}
			l.pos += size
		}
		word := l.input[start:l.pos]
		if upper := strings.ToUpper(word); keywords[upper] {
			return Token{Type: TokenKeyword, Value: upper, Pos: start}
		}
		return Token{Type: TokenIdent, Value: strings.ToLower(word), Pos: start}

	case unicode.IsDigit(r) || (r == '.' && l.digitAt(l.pos+1)):
		return l.readNumber()

	case r == '\'':
		return l.readString()

	case r == '"':
		return l.readQuotedIdent()
	}

	l.pos += size
	switch r {
	case ',':
		return Token{Type: TokenComma, Value: ",", Pos: start}
	case '(':
		return Token{Type: TokenLParen, Value: "(", Pos: start}
	case ')':
		return Token{Type: TokenRParen, Value: ")", Pos: start}
	case '.':
		return Token{Type: TokenDot, Value: ".", Pos: start}
	case ';':
		return Token{Type: TokenSemicolon, Value: ";", Pos: start}
	case '*':
		return Token{Type: TokenStar, Value: "*", Pos: start}
	}
	l.pos = start

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op) {
			l.pos += len(op)
			return Token{Type: TokenOperator, Value: op, Pos: start}
		}
	}

	l.pos += size
	return Token{Type: TokenIllegal, Value: "syntax error at or near \"" + string(r) + "\"", Pos: start}
}

func (l *Lexer) digitAt(i int) bool {
	return i < len(l.input) && l.input[i] >= '0' && l.input[i] <= '9'
}

// readNumber consumes digits, an optional fraction and an optional
// exponent: 12, 1.5, .5, 3e8, 2.5E-3.
func (l *Lexer) readNumber() Token {
	start := l.pos
	for l.digitAt(l.pos) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' && l.digitAt(l.pos+1) {
		l.pos++
		for l.digitAt(l.pos) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		exp := l.pos + 1
		if exp < len(l.input) && (l.input[exp] == '+' || l.input[exp] == '-') {
			exp++
		}
		if l.digitAt(exp) {
			l.pos = exp
			for l.digitAt(l.pos) {
				l.pos++
			}
		}
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

// readString consumes a single-quoted literal, unescaping doubled quotes.
func (l *Lexer) readString() Token {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\'' {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				b.WriteByte('\'')
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Type: TokenString, Value: b.String(), Pos: start}
		}
		b.WriteByte(ch)
		l.pos++
	}
	return Token{Type: TokenIllegal, Value: "unterminated quoted string", Pos: start}
}

// readQuotedIdent consumes a double-quoted identifier, unescaping "".
func (l *Lexer) readQuotedIdent() Token {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '"' {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '"' {
				b.WriteByte('"')
				l.pos += 2
				continue
			}
			l.pos++
			if b.Len() == 0 {
				return Token{Type: TokenIllegal, Value: "zero-length delimited identifier", Pos: start}
			}
			return Token{Type: TokenIdent, Value: b.String(), Pos: start, Quoted: true}
		}
		b.WriteByte(ch)
		l.pos++
	}
	return Token{Type: TokenIllegal, Value: "unterminated quoted identifier", Pos: start}
}

// skipWhitespace advances past whitespace and comments. It returns a
// message for an unterminated block comment.
func (l *Lexer) skipWhitespace() string {
	for l.pos < len(l.input) {
		switch {
		case unicode.IsSpace(rune(l.input[l.pos])):
			l.pos++
		case strings.HasPrefix(l.input[l.pos:], "--"):
			end := strings.IndexByte(l.input[l.pos:], '\n')
			if end < 0 {
				l.pos = len(l.input)
			} else {
				l.pos += end + 1
			}
		case strings.HasPrefix(l.input[l.pos:], "/*"):
			end := strings.Index(l.input[l.pos+2:], "*/")
			if end < 0 {
				l.pos = len(l.input)
				return "unterminated /* comment"
			}
			l.pos += end + 4
		default:
			return ""
		}
	}
	return ""
}
