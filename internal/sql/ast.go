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
Package sql provides the SQL front end of FlyMem: lexer, parser and AST.

Abstract Syntax Tree (AST) Overview:
====================================

The AST is the parser's output and the planner's input. It is a closed set
of node types:

  - every statement type implements Statement through the unexported
    statementNode() marker;
  - every expression type implements Expr through exprNode().

Code outside this package cannot add variants, so the planner's type
switch over statements and expressions is exhaustive. A variant the
planner does not handle is reported as NotSupported.

The AST is purely syntactic. Names are not resolved and types are not
checked; that is the planner's job.

AST Node Hierarchy:
===================

	Statement (interface)
	├── CreateTableStmt      ├── InsertStmt
	├── CreateIndexStmt      ├── UpdateStmt
	├── CreateSequenceStmt   ├── DeleteStmt
	├── DropTableStmt        ├── SelectStmt
	├── DropIndexStmt        ├── BeginStmt
	├── DropSequenceStmt     ├── CommitStmt
	                         └── RollbackStmt

	Expr (interface)
	├── ColumnExpr   ├── UnaryExpr    ├── InExpr
	├── NullLit      ├── BinaryExpr   ├── BetweenExpr
	├── BoolLit      ├── IsNullExpr   ├── CastExpr
	├── NumberLit    └── FuncCall
	└── StringLit

Example AST:
============

For the SQL: SELECT name FROM users u WHERE u.id = 1

	&SelectStmt{
	    Columns: []SelectItem{{Expr: &ColumnExpr{Name: "name"}}},
	    From:    &TableRef{Name: "users", Alias: "u"},
	    Where: &BinaryExpr{
	        Op:    "=",
	        Left:  &ColumnExpr{Table: "u", Name: "id"},
	        Right: &NumberLit{Text: "1"},
	    },
	}
*/
package sql

// Statement represents a SQL statement node in the AST.
// The statementNode() method is a marker that closes the set of variants.
type Statement interface {
	statementNode()
}

// Expr represents a scalar expression node in the AST.
type Expr interface {
	exprNode()
}

// ============================================================================
// Data Definition
// ============================================================================

// TypeName is a type as written, e.g. "integer", "double precision" or
// "serial". Modifiers such as varchar(20) are parsed and discarded.
type TypeName string

// ColumnDef is one column of a CREATE TABLE statement.
type ColumnDef struct {
	Name       string
	Type       TypeName
	NotNull    bool
	PrimaryKey bool
	Unique     bool
	Default    Expr // nil when no DEFAULT clause was given
}

// ConstraintKind identifies a table-level constraint.
type ConstraintKind int

const (
	ConstraintPrimaryKey ConstraintKind = iota
	ConstraintUnique
)

// TableConstraint is a table-level PRIMARY KEY (...) or UNIQUE (...).
type TableConstraint struct {
	Kind    ConstraintKind
	Columns []string
}

// CreateTableStmt represents a CREATE TABLE statement.
//
// SQL Syntax:
//
//	CREATE TABLE [IF NOT EXISTS] <name> (
//	    <col> <type> [NOT NULL] [NULL] [PRIMARY KEY] [UNIQUE] [DEFAULT <expr>],
//	    ...
//	    [, PRIMARY KEY (<cols>)] [, UNIQUE (<cols>)]
//	)
type CreateTableStmt struct {
	TableName   string
	IfNotExists bool
	Columns     []ColumnDef
	Constraints []TableConstraint
}

func (CreateTableStmt) statementNode() {}

// CreateIndexStmt represents a CREATE INDEX statement. IndexName is empty
// when the name was omitted.
//
// SQL Syntax:
//
//	CREATE [UNIQUE] INDEX [IF NOT EXISTS] [<name>] ON <table> (<col> [ASC|DESC] [NULLS FIRST|LAST], ...)
type CreateIndexStmt struct {
	IndexName   string
	TableName   string
	Unique      bool
	IfNotExists bool
	Columns     []OrderItem
}

func (CreateIndexStmt) statementNode() {}

// CreateSequenceStmt represents a CREATE SEQUENCE statement.
//
// SQL Syntax:
//
//	CREATE SEQUENCE [IF NOT EXISTS] <name> [START [WITH] <n>] [INCREMENT [BY] <n>]
type CreateSequenceStmt struct {
	Name        string
	IfNotExists bool
	Start       *int64
	Increment   *int64
}

func (CreateSequenceStmt) statementNode() {}

// DropTableStmt represents DROP TABLE [IF EXISTS] <name> [CASCADE].
type DropTableStmt struct {
	Name     string
	IfExists bool
	Cascade  bool
}

func (DropTableStmt) statementNode() {}

// DropIndexStmt represents DROP INDEX [IF EXISTS] <name>.
type DropIndexStmt struct {
	Name     string
	IfExists bool
	Cascade  bool
}

func (DropIndexStmt) statementNode() {}

// DropSequenceStmt represents DROP SEQUENCE [IF EXISTS] <name> [CASCADE].
type DropSequenceStmt struct {
	Name     string
	IfExists bool
	Cascade  bool
}

func (DropSequenceStmt) statementNode() {}

// ============================================================================
// Data Manipulation
// ============================================================================

// InsertStmt represents an INSERT statement. Exactly one of Values and
// Select is set.
//
// SQL Syntax:
//
//	INSERT INTO <table> [(<cols>)] VALUES (<exprs>), ...
//	INSERT INTO <table> [(<cols>)] SELECT ...
type InsertStmt struct {
	TableName string
	Columns   []string
	Values    [][]Expr
	Select    *SelectStmt
}

func (InsertStmt) statementNode() {}

// Assignment is one "col = expr" of an UPDATE.
type Assignment struct {
	Column string
	Value  Expr
}

// UpdateStmt represents UPDATE <table> [[AS] <alias>] SET ... [WHERE ...].
type UpdateStmt struct {
	TableName string
	Alias     string
	Set       []Assignment
	Where     Expr
}

func (UpdateStmt) statementNode() {}

// DeleteStmt represents DELETE FROM <table> [[AS] <alias>] [WHERE ...].
type DeleteStmt struct {
	TableName string
	Alias     string
	Where     Expr
}

func (DeleteStmt) statementNode() {}

// SelectItem is one entry of the select list. Star is set for "*" and
// "t.*"; StarTable holds the qualifier.
type SelectItem struct {
	Expr      Expr
	Alias     string
	Star      bool
	StarTable string
}

// TableRef is a table in FROM or JOIN.
type TableRef struct {
	Name  string
	Alias string
}

// JoinKind is the kind of a join clause.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinCross
)

// JoinClause is one JOIN of a FROM list. A comma in the FROM list is a
// cross join with no ON condition.
type JoinClause struct {
	Kind  JoinKind
	Table TableRef
	On    Expr
}

// OrderItem is one ORDER BY key, or one key column of CREATE INDEX.
// NullsFirst is nil when no NULLS clause was given.
type OrderItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool
}

// SelectStmt represents a SELECT statement.
//
// SQL Syntax:
//
//	SELECT [DISTINCT] <items>
//	[FROM <table> [<alias>] [[LEFT|RIGHT|INNER|CROSS] JOIN <table> [<alias>] [ON <expr>]] ...]
//	[WHERE <expr>]
//	[ORDER BY <expr> [ASC|DESC] [NULLS FIRST|LAST], ...]
//	[LIMIT <n>] [OFFSET <n>]
type SelectStmt struct {
	Distinct bool
	Columns  []SelectItem
	From     *TableRef
	Joins    []JoinClause
	Where    Expr
	OrderBy  []OrderItem
	Limit    *int64
	Offset   *int64
}

func (SelectStmt) statementNode() {}

// ============================================================================
// Transaction Control
// ============================================================================

// BeginStmt represents BEGIN [TRANSACTION|WORK].
type BeginStmt struct{}

func (BeginStmt) statementNode() {}

// CommitStmt represents COMMIT [TRANSACTION|WORK].
type CommitStmt struct{}

func (CommitStmt) statementNode() {}

// RollbackStmt represents ROLLBACK [TRANSACTION|WORK].
type RollbackStmt struct{}

func (RollbackStmt) statementNode() {}

// ============================================================================
// Expressions
// ============================================================================

// ColumnExpr is a column reference, optionally qualified: name or t.name.
type ColumnExpr struct {
	Table string
	Name  string
}

// NullLit is the NULL literal.
type NullLit struct{}

// BoolLit is TRUE or FALSE.
type BoolLit struct {
	Value bool
}

// NumberLit is a numeric literal as written. The planner decides whether
// it is an integer or a numeric.
type NumberLit struct {
	Text string
}

// StringLit is a single-quoted literal, unescaped.
type StringLit struct {
	Value string
}

// UnaryExpr is "-x" or "NOT x".
type UnaryExpr struct {
	Op      string
	Operand Expr
}

// BinaryExpr is an infix operator: comparison, AND/OR, arithmetic, ||,
// -> and ->>. Op holds the operator text, upper-cased for keywords.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// IsNullExpr is "x IS [NOT] NULL".
type IsNullExpr struct {
	Operand Expr
	Not     bool
}

// InExpr is "x [NOT] IN (list)".
type InExpr struct {
	Operand Expr
	List    []Expr
	Not     bool
}

// BetweenExpr is "x [NOT] BETWEEN low AND high".
type BetweenExpr struct {
	Operand Expr
	Low     Expr
	High    Expr
	Not     bool
}

// CastExpr is "CAST(x AS type)" or "x::type".
type CastExpr struct {
	Operand Expr
	Type    TypeName
}

// FuncCall is a function call. Name is lower case.
type FuncCall struct {
	Name string
	Args []Expr
}

func (*ColumnExpr) exprNode()  {}
func (*NullLit) exprNode()     {}
func (*BoolLit) exprNode()     {}
func (*NumberLit) exprNode()   {}
func (*StringLit) exprNode()   {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*IsNullExpr) exprNode()  {}
func (*InExpr) exprNode()      {}
func (*BetweenExpr) exprNode() {}
func (*CastExpr) exprNode()    {}
func (*FuncCall) exprNode()    {}
