// Package ast defines the syntax tree produced by internal/parser and
// consumed by internal/executor and internal/planner, following the
// teacher's Node/Statement/Expression interface shape (internal/parser/ast)
// generalized to the full grammar of spec.md §4.2.
package ast

import (
	"bytes"
	"fmt"
	"strings"
)

type Node interface {
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Identifier is a column or table reference, optionally qualified
// (e.g. "users.id" parses to Qualifier="users", Value="id").
type Identifier struct {
	Qualifier string
	Value     string
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string {
	if i.Qualifier != "" {
		return i.Qualifier + "." + i.Value
	}
	return i.Value
}

// LiteralKind discriminates the kind of value a Literal holds.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitInt
	LitFloat
	LitBool
	LitDate
	LitNull
)

// Literal is a constant appearing in the SQL text.
type Literal struct {
	Kind LiteralKind
	Str  string
	Int  int64
	Flt  float64
	Bool bool
}

func (l *Literal) expressionNode() {}
func (l *Literal) String() string {
	switch l.Kind {
	case LitString:
		return "'" + l.Str + "'"
	case LitInt:
		return fmt.Sprintf("%d", l.Int)
	case LitFloat:
		return fmt.Sprintf("%g", l.Flt)
	case LitBool:
		if l.Bool {
			return "TRUE"
		}
		return "FALSE"
	case LitDate:
		return "'" + l.Str + "'"
	default:
		return "NULL"
	}
}

// BinaryExpression is Left Operator Right, covering comparison (=, !=, <>,
// <, <=, >, >=), logical (AND, OR), LIKE, and arithmetic (+, -, *, /).
type BinaryExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (e *BinaryExpression) expressionNode() {}
func (e *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left.String(), e.Operator, e.Right.String())
}

// UnaryExpression is Operator Operand, covering unary minus and NOT.
type UnaryExpression struct {
	Operator string
	Operand  Expression
}

func (e *UnaryExpression) expressionNode() {}
func (e *UnaryExpression) String() string {
	return fmt.Sprintf("(%s %s)", e.Operator, e.Operand.String())
}

// IsNullExpression is `expr IS [NOT] NULL`.
type IsNullExpression struct {
	Operand Expression
	Negate  bool
}

func (e *IsNullExpression) expressionNode() {}
func (e *IsNullExpression) String() string {
	if e.Negate {
		return fmt.Sprintf("(%s IS NOT NULL)", e.Operand.String())
	}
	return fmt.Sprintf("(%s IS NULL)", e.Operand.String())
}

// InExpression is `expr [NOT] IN (v1, v2, ...)`.
type InExpression struct {
	Operand Expression
	List    []Expression
	Negate  bool
}

func (e *InExpression) expressionNode() {}
func (e *InExpression) String() string {
	parts := make([]string, len(e.List))
	for i, v := range e.List {
		parts[i] = v.String()
	}
	if e.Negate {
		return fmt.Sprintf("(%s NOT IN (%s))", e.Operand.String(), strings.Join(parts, ", "))
	}
	return fmt.Sprintf("(%s IN (%s))", e.Operand.String(), strings.Join(parts, ", "))
}

// AggregateCall is COUNT/SUM/AVG/MIN/MAX applied to either `*` (COUNT only)
// or a single expression.
type AggregateCall struct {
	Func string // COUNT, SUM, AVG, MIN, MAX
	Star bool
	Arg  Expression
}

func (a *AggregateCall) expressionNode() {}
func (a *AggregateCall) String() string {
	if a.Star {
		return a.Func + "(*)"
	}
	return fmt.Sprintf("%s(%s)", a.Func, a.Arg.String())
}

// SelectItem is one projected column: an expression plus an optional alias.
type SelectItem struct {
	Expr  Expression
	Alias string
}

// JoinClause chains one additional source onto the FROM list.
type JoinClause struct {
	Kind  string // INNER, LEFT, CROSS
	Table string
	Alias string
	On    Expression // nil for CROSS JOIN
}

// OrderItem is one ORDER BY term.
type OrderItem struct {
	Expr       Expression
	Descending bool
}

// SelectStatement: SELECT items FROM table [alias] [joins] [WHERE]
// [GROUP BY] [HAVING] [ORDER BY] [LIMIT].
type SelectStatement struct {
	Items     []SelectItem
	TableName string
	Alias     string
	Joins     []JoinClause
	Where     Expression
	GroupBy   []Expression
	Having    Expression
	OrderBy   []OrderItem
	Limit     *int64
}

func (s *SelectStatement) statementNode() {}
func (s *SelectStatement) String() string {
	var out bytes.Buffer
	out.WriteString("SELECT ")
	for i, it := range s.Items {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(it.Expr.String())
		if it.Alias != "" {
			out.WriteString(" AS " + it.Alias)
		}
	}
	out.WriteString(" FROM ")
	out.WriteString(s.TableName)
	for _, j := range s.Joins {
		out.WriteString(fmt.Sprintf(" %s JOIN %s", j.Kind, j.Table))
		if j.On != nil {
			out.WriteString(" ON " + j.On.String())
		}
	}
	if s.Where != nil {
		out.WriteString(" WHERE " + s.Where.String())
	}
	if len(s.GroupBy) > 0 {
		out.WriteString(" GROUP BY ...")
	}
	if s.Having != nil {
		out.WriteString(" HAVING " + s.Having.String())
	}
	return out.String()
}

// InsertStatement: INSERT INTO table (cols) VALUES (v1,..), (v2,..);
type InsertStatement struct {
	TableName string
	Columns   []string
	Rows      [][]Expression
}

func (s *InsertStatement) statementNode() {}
func (s *InsertStatement) String() string {
	return fmt.Sprintf("INSERT INTO %s (...) VALUES (...) [%d rows]", s.TableName, len(s.Rows))
}

// Assignment is one `col = expr` pair of an UPDATE SET clause.
type Assignment struct {
	Column string
	Value  Expression
}

// UpdateStatement: UPDATE table SET col=expr, ... [WHERE ...].
type UpdateStatement struct {
	TableName string
	Set       []Assignment
	Where     Expression
}

func (s *UpdateStatement) statementNode() {}
func (s *UpdateStatement) String() string { return fmt.Sprintf("UPDATE %s SET ...", s.TableName) }

// DeleteStatement: DELETE FROM table [WHERE ...].
type DeleteStatement struct {
	TableName string
	Where     Expression
}

func (s *DeleteStatement) statementNode() {}
func (s *DeleteStatement) String() string { return fmt.Sprintf("DELETE FROM %s", s.TableName) }

// ColumnDef is one column definition inside CREATE TABLE.
type ColumnDef struct {
	Name          string
	TypeName      string
	Length        int
	PrimaryKey    bool
	Unique        bool
	NotNull       bool
	ReferencesTbl string
	ReferencesCol string
	// OnDeleteRestrict records whether the REFERENCES clause carried an
	// explicit "ON DELETE RESTRICT". The grammar accepts no other action
	// (CASCADE, SET NULL) — the parser rejects them outright, since
	// RESTRICT is the only delete behavior this engine implements.
	OnDeleteRestrict bool
}

// CreateTableStatement: CREATE TABLE name (col defs...).
type CreateTableStatement struct {
	TableName string
	Columns   []ColumnDef
}

func (s *CreateTableStatement) statementNode() {}
func (s *CreateTableStatement) String() string {
	return fmt.Sprintf("CREATE TABLE %s (%d columns)", s.TableName, len(s.Columns))
}

// DropTableStatement: DROP TABLE name.
type DropTableStatement struct {
	TableName string
}

func (s *DropTableStatement) statementNode() {}
func (s *DropTableStatement) String() string { return fmt.Sprintf("DROP TABLE %s", s.TableName) }

// CreateIndexStatement: CREATE [UNIQUE] INDEX name ON table (column).
type CreateIndexStatement struct {
	IndexName string
	TableName string
	Column    string
	Unique    bool
}

func (s *CreateIndexStatement) statementNode() {}
func (s *CreateIndexStatement) String() string {
	return fmt.Sprintf("CREATE INDEX %s ON %s(%s)", s.IndexName, s.TableName, s.Column)
}

// ExplainStatement wraps any other statement for plan-only execution.
type ExplainStatement struct {
	Statement Statement
}

func (s *ExplainStatement) statementNode() {}
func (s *ExplainStatement) String() string { return "EXPLAIN " + s.Statement.String() }
