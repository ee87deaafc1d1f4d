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
Package sql contains the Parser component for SQL syntax analysis.

Parser Overview:
================

The Parser is the second stage of the SQL processing pipeline. It takes
a stream of tokens from the Lexer and builds the AST.

Parsing Technique:
==================

The parser is a recursive descent parser with one token of lookahead:

  - cur: the token being examined
  - peek: the next token

Every parse function starts with cur on the first token of its construct
and returns with cur on the first token after it.

Grammar (Simplified BNF):
=========================

	script        := [statement] (; [statement])*
	statement     := create_table | create_index | create_sequence
	              | drop | insert | update | delete | select
	              | BEGIN | COMMIT | ROLLBACK

	create_table  := CREATE TABLE [IF NOT EXISTS] ident ( table_elem (, table_elem)* )
	table_elem    := ident type col_constraint* | PRIMARY KEY ( idents ) | UNIQUE ( idents )
	create_index  := CREATE [UNIQUE] INDEX [IF NOT EXISTS] [ident] ON ident ( order_item (, order_item)* )
	drop          := DROP (TABLE|INDEX|SEQUENCE) [IF EXISTS] ident [CASCADE|RESTRICT]

	select        := SELECT [DISTINCT|ALL] select_item (, select_item)*
	                 [FROM table_ref join*] [WHERE expr]
	                 [ORDER BY order_item (, order_item)*] [LIMIT n|ALL] [OFFSET n]
	order_item    := expr [ASC|DESC] [NULLS (FIRST|LAST)]

Operator Precedence (lowest first):
===================================

	OR
	AND
	NOT
	IS [NOT] NULL
	= <> != < <= > >=
	[NOT] BETWEEN, [NOT] IN
	|| -> ->>
	+ -
	* / %
	unary -
	::

Usage Example:
==============

	stmts, err := sql.Parse("CREATE TABLE t (id serial PRIMARY KEY); SELECT * FROM t")
	if err != nil {
	    return err
	}
	// stmts[0] is a *CreateTableStmt, stmts[1] a *SelectStmt
*/
package sql

import (
	"fmt"
	"strconv"
	"strings"

	ferrors "flymem/internal/errors"
)

// Parse parses a script of semicolon separated statements. Empty
// statements are skipped, so an empty script yields no statements.
func Parse(text string) ([]Statement, error) {
	p := NewParser(NewLexer(text))
	var stmts []Statement
	for {
		for p.cur.Type == TokenSemicolon {
			p.nextToken()
		}
		if p.cur.Type == TokenEOF {
			return stmts, nil
		}
		stmt, err := p.Parse()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != TokenSemicolon && p.cur.Type != TokenEOF {
			return nil, p.unexpected()
		}
		stmts = append(stmts, stmt)
	}
}

// Parser transforms a stream of tokens into an AST.
type Parser struct {
	lexer *Lexer // The lexer providing tokens
	cur   Token  // Current token
	peek  Token  // Next token (lookahead)
}

// NewParser creates a new Parser reading from lexer. It reads two tokens
// to populate both cur and peek.
func NewParser(lexer *Lexer) *Parser {
	p := &Parser{lexer: lexer}
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances the parser to the next token.
func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

// peekAfter returns the token following peek without consuming anything.
func (p *Parser) peekAfter() Token {
	l := *p.lexer
	return l.NextToken()
}

// Parse parses one statement starting at the current token.
func (p *Parser) Parse() (Statement, error) {
	if p.cur.Type == TokenIdent && p.cur.Value == "start" && p.peekWord("transaction") {
		p.nextToken()
		p.nextToken()
		return &BeginStmt{}, nil
	}
	if p.cur.Type != TokenKeyword {
		return nil, p.unexpected()
	}
	switch p.cur.Value {
	case "CREATE":
		switch {
		case p.peekKeyword("TABLE"):
			return p.parseCreateTable()
		case p.peekKeyword("INDEX"), p.peekKeyword("UNIQUE"):
			return p.parseCreateIndex()
		case p.peekKeyword("SEQUENCE"):
			return p.parseCreateSequence()
		}
		p.nextToken()
		return nil, ferrors.NotSupported("CREATE " + strings.ToUpper(p.cur.Value))
	case "DROP":
		return p.parseDrop()
	case "INSERT":
		return p.parseInsert()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	case "SELECT":
		return p.parseSelect()
	case "BEGIN":
		p.nextToken()
		p.skipTransactionWord()
		return &BeginStmt{}, nil
	case "COMMIT":
		p.nextToken()
		p.skipTransactionWord()
		return &CommitStmt{}, nil
	case "ROLLBACK":
		p.nextToken()
		p.skipTransactionWord()
		return &RollbackStmt{}, nil
	}
	return nil, p.unexpected()
}

// ============================================================================
// Token helpers
// ============================================================================

func (p *Parser) isKeyword(kw string) bool {
	return p.cur.Type == TokenKeyword && p.cur.Value == kw
}

func (p *Parser) peekKeyword(kw string) bool {
	return p.peek.Type == TokenKeyword && p.peek.Value == kw
}

// isWord matches a non-reserved word such as FIRST or KEY.
func (p *Parser) isWord(w string) bool {
	return p.cur.Type == TokenIdent && !p.cur.Quoted && p.cur.Value == w
}

func (p *Parser) peekWord(w string) bool {
	return p.peek.Type == TokenIdent && !p.peek.Quoted && p.peek.Value == w
}

func (p *Parser) isOperator(op string) bool {
	return p.cur.Type == TokenOperator && p.cur.Value == op
}

// accept consumes keyword kw if it is the current token.
func (p *Parser) accept(kw string) bool {
	if p.isKeyword(kw) {
		p.nextToken()
		return true
	}
	return false
}

// expectPeek advances when the peek token has type t.
func (p *Parser) expectPeek(t TokenType) bool {
	if p.peek.Type == t {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.accept(kw) {
		return p.expected(kw)
	}
	return nil
}

func (p *Parser) expect(t TokenType) error {
	if p.cur.Type != t {
		return p.expected(t.String())
	}
	p.nextToken()
	return nil
}

func (p *Parser) expectWord(w string) error {
	if !p.isWord(w) {
		return p.expected(strings.ToUpper(w))
	}
	p.nextToken()
	return nil
}

// ident consumes an identifier.
func (p *Parser) ident(what string) (string, error) {
	if p.cur.Type != TokenIdent {
		return "", p.expected(what)
	}
	name := p.cur.Value
	p.nextToken()
	return name, nil
}

func (p *Parser) skipTransactionWord() {
	if p.isWord("transaction") || p.isWord("work") {
		p.nextToken()
	}
}

// ifExists consumes an optional IF [NOT] EXISTS clause.
func (p *Parser) ifExists(not bool) (bool, error) {
	if !p.accept("IF") {
		return false, nil
	}
	if not {
		if err := p.expectKeyword("NOT"); err != nil {
			return false, err
		}
	}
	if err := p.expectKeyword("EXISTS"); err != nil {
		return false, err
	}
	return true, nil
}

// describe renders the current token for an error message.
func (p *Parser) describe() string {
	switch p.cur.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return "'" + p.cur.Value + "'"
	}
	return "\"" + p.cur.Value + "\""
}

// unexpected reports the current token as a syntax error.
func (p *Parser) unexpected() error {
	switch p.cur.Type {
	case TokenIllegal:
		if p.cur.Value == "unterminated quoted string" {
			return ferrors.UnclosedString()
		}
		return ferrors.NewSyntaxError(p.cur.Value)
	case TokenEOF:
		return ferrors.NewSyntaxError("syntax error at end of input")
	}
	return ferrors.NewSyntaxError("syntax error at or near " + p.describe())
}

func (p *Parser) expected(what string) error {
	if p.cur.Type == TokenIllegal {
		return p.unexpected()
	}
	return ferrors.UnexpectedToken(what, p.describe())
}

// ============================================================================
// Data Definition
// ============================================================================

// parseCreateTable parses a CREATE TABLE statement.
// Syntax: CREATE TABLE [IF NOT EXISTS] <name> (<column or constraint>, ...)
//
// Example: CREATE TABLE users (id serial PRIMARY KEY, email text UNIQUE NOT NULL)
func (p *Parser) parseCreateTable() (*CreateTableStmt, error) {
	p.nextToken() // CREATE
	p.nextToken() // TABLE

	stmt := &CreateTableStmt{}
	var err error
	if stmt.IfNotExists, err = p.ifExists(true); err != nil {
		return nil, err
	}
	if stmt.TableName, err = p.ident("table name"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	for {
		if p.isWord("constraint") {
			// CONSTRAINT <name> is accepted and the name ignored.
			p.nextToken()
			if _, err := p.ident("constraint name"); err != nil {
				return nil, err
			}
		}
		switch {
		case p.isKeyword("PRIMARY"), p.isKeyword("UNIQUE"):
			c, err := p.parseTableConstraint()
			if err != nil {
				return nil, err
			}
			stmt.Constraints = append(stmt.Constraints, c)
		default:
			col, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
		}
		if p.cur.Type != TokenComma {
			break
		}
		p.nextToken()
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseColumnDef parses "<name> <type> [constraints]".
func (p *Parser) parseColumnDef() (ColumnDef, error) {
	var col ColumnDef
	var err error
	if col.Name, err = p.ident("column name"); err != nil {
		return col, err
	}
	if col.Type, err = p.parseTypeName(); err != nil {
		return col, err
	}
	for {
		switch {
		case p.isKeyword("NOT"):
			p.nextToken()
			if err := p.expectKeyword("NULL"); err != nil {
				return col, err
			}
			col.NotNull = true
		case p.isKeyword("NULL"):
			p.nextToken()
		case p.isKeyword("PRIMARY"):
			p.nextToken()
			if err := p.expectWord("key"); err != nil {
				return col, err
			}
			col.PrimaryKey = true
		case p.isKeyword("UNIQUE"):
			p.nextToken()
			col.Unique = true
		case p.isKeyword("DEFAULT"):
			p.nextToken()
			if col.Default, err = p.parseExpr(); err != nil {
				return col, err
			}
		default:
			return col, nil
		}
	}
}

// parseTableConstraint parses PRIMARY KEY (cols) or UNIQUE (cols).
func (p *Parser) parseTableConstraint() (TableConstraint, error) {
	c := TableConstraint{Kind: ConstraintUnique}
	if p.accept("PRIMARY") {
		if err := p.expectWord("key"); err != nil {
			return c, err
		}
		c.Kind = ConstraintPrimaryKey
	} else {
		p.nextToken() // UNIQUE
	}
	cols, err := p.parseIdentList()
	if err != nil {
		return c, err
	}
	c.Columns = cols
	return c, nil
}

// parseIdentList parses "(a, b, ...)".
func (p *Parser) parseIdentList() ([]string, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var names []string
	for {
		name, err := p.ident("column name")
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.cur.Type != TokenComma {
			break
		}
		p.nextToken()
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return names, nil
}

// parseTypeName parses a type such as "int", "double precision" or
// "varchar(20)". Type modifiers are discarded.
func (p *Parser) parseTypeName() (TypeName, error) {
	first, err := p.ident("type name")
	if err != nil {
		return "", err
	}
	words := []string{first}
	switch {
	case first == "double" && p.isWord("precision"),
		first == "character" && p.isWord("varying"):
		words = append(words, p.cur.Value)
		p.nextToken()
	case first == "timestamp" && (p.isWord("with") || p.isWord("without")) && p.peekWord("time"):
		with := p.cur.Value == "with"
		p.nextToken()
		p.nextToken()
		if err := p.expectWord("zone"); err != nil {
			return "", err
		}
		if with {
			words = []string{"timestamptz"}
		}
	}
	if p.cur.Type == TokenLParen {
		p.nextToken()
		for p.cur.Type == TokenNumber || p.cur.Type == TokenComma {
			p.nextToken()
		}
		if err := p.expect(TokenRParen); err != nil {
			return "", err
		}
	}
	return TypeName(strings.Join(words, " ")), nil
}

// parseCreateIndex parses a CREATE INDEX statement.
// Syntax: CREATE [UNIQUE] INDEX [IF NOT EXISTS] [<name>] ON <table> (<key>, ...)
//
// Examples:
//
//	CREATE INDEX users_age_idx ON users (age DESC NULLS LAST)
//	CREATE UNIQUE INDEX ON users (lower(email))
func (p *Parser) parseCreateIndex() (*CreateIndexStmt, error) {
	p.nextToken() // CREATE
	stmt := &CreateIndexStmt{Unique: p.accept("UNIQUE")}
	if err := p.expectKeyword("INDEX"); err != nil {
		return nil, err
	}
	var err error
	if stmt.IfNotExists, err = p.ifExists(true); err != nil {
		return nil, err
	}
	if !p.isKeyword("ON") {
		if stmt.IndexName, err = p.ident("index name"); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	if stmt.TableName, err = p.ident("table name"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	if stmt.Columns, err = p.parseOrderItems(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseCreateSequence parses a CREATE SEQUENCE statement.
// Syntax: CREATE SEQUENCE [IF NOT EXISTS] <name> [START [WITH] n] [INCREMENT [BY] n]
func (p *Parser) parseCreateSequence() (*CreateSequenceStmt, error) {
	p.nextToken() // CREATE
	p.nextToken() // SEQUENCE
	stmt := &CreateSequenceStmt{}
	var err error
	if stmt.IfNotExists, err = p.ifExists(true); err != nil {
		return nil, err
	}
	if stmt.Name, err = p.ident("sequence name"); err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isWord("start"):
			p.nextToken()
			if p.isWord("with") {
				p.nextToken()
			}
			n, err := p.parseSignedInt()
			if err != nil {
				return nil, err
			}
			stmt.Start = &n
		case p.isWord("increment"):
			p.nextToken()
			p.accept("BY")
			n, err := p.parseSignedInt()
			if err != nil {
				return nil, err
			}
			stmt.Increment = &n
		default:
			return stmt, nil
		}
	}
}

func (p *Parser) parseSignedInt() (int64, error) {
	neg := false
	if p.isOperator("-") {
		neg = true
		p.nextToken()
	}
	if p.cur.Type != TokenNumber {
		return 0, p.expected("integer")
	}
	n, err := strconv.ParseInt(p.cur.Value, 10, 64)
	if err != nil {
		return 0, ferrors.NewSyntaxError(fmt.Sprintf("invalid integer %q", p.cur.Value))
	}
	p.nextToken()
	if neg {
		n = -n
	}
	return n, nil
}

// parseDrop parses DROP TABLE, DROP INDEX and DROP SEQUENCE.
// Syntax: DROP <kind> [IF EXISTS] <name> [CASCADE|RESTRICT]
func (p *Parser) parseDrop() (Statement, error) {
	p.nextToken() // DROP
	kind := p.cur.Value
	if p.cur.Type != TokenKeyword || (kind != "TABLE" && kind != "INDEX" && kind != "SEQUENCE") {
		if p.cur.Type == TokenIdent || p.cur.Type == TokenKeyword {
			return nil, ferrors.NotSupported("DROP " + strings.ToUpper(kind))
		}
		return nil, p.expected("TABLE, INDEX or SEQUENCE")
	}
	p.nextToken()
	ifExists, err := p.ifExists(false)
	if err != nil {
		return nil, err
	}
	name, err := p.ident(strings.ToLower(kind) + " name")
	if err != nil {
		return nil, err
	}
	if p.cur.Type == TokenComma {
		return nil, ferrors.NotSupported("dropping several objects in one statement")
	}
	cascade := p.accept("CASCADE")
	if !cascade {
		p.accept("RESTRICT")
	}
	switch kind {
	case "TABLE":
		return &DropTableStmt{Name: name, IfExists: ifExists, Cascade: cascade}, nil
	case "INDEX":
		return &DropIndexStmt{Name: name, IfExists: ifExists, Cascade: cascade}, nil
	default:
		return &DropSequenceStmt{Name: name, IfExists: ifExists, Cascade: cascade}, nil
	}
}

// ============================================================================
// Data Manipulation
// ============================================================================

// parseInsert parses an INSERT statement.
// Syntax: INSERT INTO <table> [(<cols>)] VALUES (<exprs>), ... | SELECT ...
//
// Example: INSERT INTO users (email, age) VALUES ('a@x.io', 30), ('b@x.io', NULL)
func (p *Parser) parseInsert() (*InsertStmt, error) {
	p.nextToken() // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	stmt := &InsertStmt{}
	var err error
	if stmt.TableName, err = p.ident("table name"); err != nil {
		return nil, err
	}
	if p.cur.Type == TokenLParen {
		if stmt.Columns, err = p.parseIdentList(); err != nil {
			return nil, err
		}
	}
	switch {
	case p.isKeyword("SELECT"):
		if stmt.Select, err = p.parseSelect(); err != nil {
			return nil, err
		}
	case p.accept("VALUES"):
		for {
			if err := p.expect(TokenLParen); err != nil {
				return nil, err
			}
			row, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokenRParen); err != nil {
				return nil, err
			}
			stmt.Values = append(stmt.Values, row)
			if p.cur.Type != TokenComma {
				break
			}
			p.nextToken()
		}
	default:
		return nil, p.expected("VALUES or SELECT")
	}
	return stmt, nil
}

// parseUpdate parses an UPDATE statement.
// Syntax: UPDATE <table> [[AS] <alias>] SET <col> = <expr>, ... [WHERE <expr>]
func (p *Parser) parseUpdate() (*UpdateStmt, error) {
	p.nextToken() // UPDATE
	stmt := &UpdateStmt{}
	var err error
	if stmt.TableName, err = p.ident("table name"); err != nil {
		return nil, err
	}
	if stmt.Alias, err = p.parseAlias(); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.ident("column name")
		if err != nil {
			return nil, err
		}
		if !p.isOperator("=") {
			return nil, p.expected("=")
		}
		p.nextToken()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Set = append(stmt.Set, Assignment{Column: col, Value: val})
		if p.cur.Type != TokenComma {
			break
		}
		p.nextToken()
	}
	if p.accept("WHERE") {
		if stmt.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseDelete parses DELETE FROM <table> [[AS] <alias>] [WHERE <expr>].
func (p *Parser) parseDelete() (*DeleteStmt, error) {
	p.nextToken() // DELETE
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{}
	var err error
	if stmt.TableName, err = p.ident("table name"); err != nil {
		return nil, err
	}
	if stmt.Alias, err = p.parseAlias(); err != nil {
		return nil, err
	}
	if p.accept("WHERE") {
		if stmt.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseAlias parses an optional "[AS] alias".
func (p *Parser) parseAlias() (string, error) {
	if p.accept("AS") {
		return p.ident("alias")
	}
	if p.cur.Type == TokenIdent && !p.isWord("full") && !p.isWord("natural") {
		return p.ident("alias")
	}
	return "", nil
}

// parseSelect parses a SELECT statement. See SelectStmt for the syntax.
func (p *Parser) parseSelect() (*SelectStmt, error) {
	p.nextToken() // SELECT
	stmt := &SelectStmt{}
	if p.accept("DISTINCT") {
		stmt.Distinct = true
	} else {
		p.accept("ALL")
	}

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, item)
		if p.cur.Type != TokenComma {
			break
		}
		p.nextToken()
	}

	if p.accept("FROM") {
		ref, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		stmt.From = &ref
		for {
			join, ok, err := p.parseJoin()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			stmt.Joins = append(stmt.Joins, join)
		}
	}

	var err error
	if p.accept("WHERE") {
		if stmt.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.accept("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if stmt.OrderBy, err = p.parseOrderItems(); err != nil {
			return nil, err
		}
	}
	// LIMIT and OFFSET may come in either order.
	for {
		switch {
		case p.accept("LIMIT"):
			if p.accept("ALL") {
				stmt.Limit = nil
				continue
			}
			n, err := p.parseSignedInt()
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, ferrors.NewQueryError("LIMIT must not be negative")
			}
			stmt.Limit = &n
		case p.accept("OFFSET"):
			n, err := p.parseSignedInt()
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, ferrors.NewQueryError("OFFSET must not be negative")
			}
			stmt.Offset = &n
		default:
			return stmt, nil
		}
	}
}

// parseSelectItem parses "*", "t.*" or "expr [[AS] alias]".
func (p *Parser) parseSelectItem() (SelectItem, error) {
	if p.cur.Type == TokenStar {
		p.nextToken()
		return SelectItem{Star: true}, nil
	}
	if p.cur.Type == TokenIdent && p.peek.Type == TokenDot && p.peekAfter().Type == TokenStar {
		table := p.cur.Value
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return SelectItem{Star: true, StarTable: table}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}
	alias, err := p.parseAlias()
	if err != nil {
		return SelectItem{}, err
	}
	return SelectItem{Expr: e, Alias: alias}, nil
}

func (p *Parser) parseTableRef() (TableRef, error) {
	name, err := p.ident("table name")
	if err != nil {
		return TableRef{}, err
	}
	alias, err := p.parseAlias()
	if err != nil {
		return TableRef{}, err
	}
	return TableRef{Name: name, Alias: alias}, nil
}

// parseJoin parses one join of a FROM list. It reports false when the
// current token does not start a join.
func (p *Parser) parseJoin() (JoinClause, bool, error) {
	var j JoinClause
	switch {
	case p.cur.Type == TokenComma:
		p.nextToken()
		j.Kind = JoinCross
	case p.accept("CROSS"):
		j.Kind = JoinCross
		if err := p.expectKeyword("JOIN"); err != nil {
			return j, false, err
		}
	case p.accept("INNER"), p.isKeyword("JOIN"):
		j.Kind = JoinInner
		if err := p.expectKeyword("JOIN"); err != nil {
			return j, false, err
		}
	case p.isKeyword("LEFT"), p.isKeyword("RIGHT"):
		j.Kind = JoinLeft
		if p.cur.Value == "RIGHT" {
			j.Kind = JoinRight
		}
		p.nextToken()
		p.accept("OUTER")
		if err := p.expectKeyword("JOIN"); err != nil {
			return j, false, err
		}
	case p.isWord("full"), p.isWord("natural"):
		return j, false, ferrors.NotSupported(strings.ToUpper(p.cur.Value) + " JOIN")
	default:
		return j, false, nil
	}
	var err error
	if j.Table, err = p.parseTableRef(); err != nil {
		return j, false, err
	}
	if j.Kind != JoinCross {
		if err := p.expectKeyword("ON"); err != nil {
			return j, false, err
		}
		if j.On, err = p.parseExpr(); err != nil {
			return j, false, err
		}
	}
	return j, true, nil
}

// parseOrderItems parses "expr [ASC|DESC] [NULLS FIRST|LAST], ...".
func (p *Parser) parseOrderItems() ([]OrderItem, error) {
	var items []OrderItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := OrderItem{Expr: e}
		if p.accept("DESC") {
			item.Desc = true
		} else {
			p.accept("ASC")
		}
		if p.isWord("nulls") {
			p.nextToken()
			var first bool
			switch {
			case p.isWord("first"):
				first = true
			case p.isWord("last"):
			default:
				return nil, p.expected("FIRST or LAST")
			}
			p.nextToken()
			item.NullsFirst = &first
		}
		items = append(items, item)
		if p.cur.Type != TokenComma {
			return items, nil
		}
		p.nextToken()
	}
}

// ============================================================================
// Expressions
// ============================================================================

func (p *Parser) parseExprList() ([]Expr, error) {
	var list []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if p.cur.Type != TokenComma {
			return list, nil
		}
		p.nextToken()
	}
}

// parseExpr parses an expression at the lowest precedence level.
func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.accept("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.accept("NOT") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "NOT", Operand: operand}, nil
	}
	return p.parseIsNull()
}

func (p *Parser) parseIsNull() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.accept("IS") {
		not := p.accept("NOT")
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		left = &IsNullExpr{Operand: left, Not: not}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenOperator {
		return left, nil
	}
	op := p.cur.Value
	switch op {
	case "!=":
		op = "<>"
	case "=", "<>", "<", "<=", ">", ">=":
	default:
		return left, nil
	}
	p.nextToken()
	right, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Op: op, Left: left, Right: right}, nil
}

// parseRange parses [NOT] BETWEEN and [NOT] IN.
func (p *Parser) parseRange() (Expr, error) {
	left, err := p.parseOther()
	if err != nil {
		return nil, err
	}
	not := false
	if p.isKeyword("NOT") && (p.peekKeyword("BETWEEN") || p.peekKeyword("IN")) {
		p.nextToken()
		not = true
	}
	switch {
	case p.accept("BETWEEN"):
		low, err := p.parseOther()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		high, err := p.parseOther()
		if err != nil {
			return nil, err
		}
		return &BetweenExpr{Operand: left, Low: low, High: high, Not: not}, nil
	case p.accept("IN"):
		if err := p.expect(TokenLParen); err != nil {
			return nil, err
		}
		if p.isKeyword("SELECT") {
			return nil, ferrors.NotSupported("subqueries")
		}
		list, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return &InExpr{Operand: left, List: list, Not: not}, nil
	}
	return left, nil
}

// parseOther parses ||, -> and ->>, which share one precedence level.
func (p *Parser) parseOther() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isOperator("||") || p.isOperator("->") || p.isOperator("->>") {
		op := p.cur.Value
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOperator("+") || p.isOperator("-") {
		op := p.cur.Value
		p.nextToken()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenStar || p.isOperator("/") || p.isOperator("%") {
		op := p.cur.Value
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	switch {
	case p.isOperator("-"):
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "-", Operand: operand}, nil
	case p.isOperator("+"):
		p.nextToken()
		return p.parseUnary()
	}
	return p.parseCast()
}

// parseCast parses a primary followed by any number of ::type suffixes.
func (p *Parser) parseCast() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOperator("::") {
		p.nextToken()
		typ, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		e = &CastExpr{Operand: e, Type: typ}
	}
	return e, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur
	switch tok.Type {
	case TokenNumber:
		p.nextToken()
		return &NumberLit{Text: tok.Value}, nil
	case TokenString:
		p.nextToken()
		return &StringLit{Value: tok.Value}, nil
	case TokenLParen:
		p.nextToken()
		if p.isKeyword("SELECT") {
			return nil, ferrors.NotSupported("subqueries")
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return e, nil
	case TokenIdent:
		p.nextToken()
		switch p.cur.Type {
		case TokenDot:
			p.nextToken()
			name, err := p.ident("column name")
			if err != nil {
				return nil, err
			}
			return &ColumnExpr{Table: tok.Value, Name: name}, nil
		case TokenLParen:
			return p.parseFuncCall(tok.Value)
		}
		return &ColumnExpr{Name: tok.Value}, nil
	case TokenKeyword:
		switch tok.Value {
		case "NULL":
			p.nextToken()
			return &NullLit{}, nil
		case "TRUE", "FALSE":
			p.nextToken()
			return &BoolLit{Value: tok.Value == "TRUE"}, nil
		case "CAST":
			return p.parseCastCall()
		}
	}
	return nil, p.unexpected()
}

// parseFuncCall parses the argument list of name(...).
func (p *Parser) parseFuncCall(name string) (Expr, error) {
	p.nextToken() // (
	call := &FuncCall{Name: name}
	if p.cur.Type == TokenStar {
		return nil, ferrors.NotSupported("function " + name + "(*)")
	}
	if p.cur.Type != TokenRParen {
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		call.Args = args
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return call, nil
}

// parseCastCall parses CAST(<expr> AS <type>).
func (p *Parser) parseCastCall() (Expr, error) {
	if !p.expectPeek(TokenLParen) {
		p.nextToken()
		return nil, p.expected("\"(\"")
	}
	p.nextToken()
	operand, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	typ, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return &CastExpr{Operand: operand, Type: typ}, nil
}
