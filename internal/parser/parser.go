// Package parser implements the recursive-descent parser of spec.md §4.2
// (C1), built on the teacher's two-token-lookahead skeleton
// (internal/parser/parser.go) and generalized to the full statement
// grammar and the precedence-climbing expression grammar:
// OR < AND < NOT < comparison < additive < multiplicative < unary < primary.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/lexer"
)

type Parser struct {
	tokens  []lexer.Token
	curPos  int
	curTok  lexer.Token
	peekTok lexer.Token
}

func New(tokens []lexer.Token) *Parser {
	p := &Parser{tokens: tokens}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse lexes and parses a single SQL statement from source text. A second
// statement (or any other trailing, non-whitespace content) after the
// first's optional semicolon is a syntax error: sql_text holds exactly one
// statement (spec.md §4.2).
func Parse(sql string) (ast.Statement, error) {
	toks, err := lexer.Tokenize(sql)
	if err != nil {
		return nil, &dberrors.SyntaxError{Pos: 0, Message: err.Error()}
	}
	p := New(toks)
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	if !p.AtEOF() {
		return nil, p.errorf("unexpected token %q after statement, expected end of input", p.curTok.Literal)
	}
	return stmt, nil
}

// AtEOF reports whether the parser has consumed every token, i.e. nothing
// beyond the statement (and its optional trailing semicolon) remains.
func (p *Parser) AtEOF() bool {
	return p.curTok.Type == lexer.EOF
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.curPos < len(p.tokens) {
		p.peekTok = p.tokens[p.curPos]
		p.curPos++
	} else {
		p.peekTok = lexer.Token{Type: lexer.EOF}
	}
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &dberrors.SyntaxError{Pos: p.curTok.Column, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(tt lexer.TokenType, what string) error {
	if p.curTok.Type != tt {
		return p.errorf("expected %s, got %q", what, p.curTok.Literal)
	}
	return nil
}

// ParseStatement dispatches on the leading keyword to one of the concrete
// statement parsers, and consumes an optional trailing semicolon.
func (p *Parser) ParseStatement() (ast.Statement, error) {
	var (
		stmt ast.Statement
		err  error
	)
	switch p.curTok.Type {
	case lexer.SELECT:
		stmt, err = p.parseSelect()
	case lexer.INSERT:
		stmt, err = p.parseInsert()
	case lexer.UPDATE:
		stmt, err = p.parseUpdate()
	case lexer.DELETE:
		stmt, err = p.parseDelete()
	case lexer.CREATE:
		stmt, err = p.parseCreate()
	case lexer.DROP:
		stmt, err = p.parseDropTable()
	case lexer.EXPLAIN:
		p.nextToken()
		inner, innerErr := p.ParseStatement()
		if innerErr != nil {
			return nil, innerErr
		}
		return &ast.ExplainStatement{Statement: inner}, nil
	default:
		return nil, p.errorf("unexpected token %q, expected a statement keyword", p.curTok.Literal)
	}
	if err != nil {
		return nil, err
	}
	if p.curTok.Type == lexer.SEMICOLON {
		p.nextToken()
	}
	return stmt, nil
}

// --- SELECT ---

func (p *Parser) parseSelect() (*ast.SelectStatement, error) {
	stmt := &ast.SelectStatement{}
	p.nextToken() // consume SELECT

	items, err := p.parseSelectItems()
	if err != nil {
		return nil, err
	}
	stmt.Items = items

	if err := p.expect(lexer.FROM, "FROM"); err != nil {
		return nil, err
	}
	p.nextToken()

	if err := p.expect(lexer.IDENTIFIER, "table name"); err != nil {
		return nil, err
	}
	stmt.TableName = p.curTok.Literal
	p.nextToken()
	stmt.Alias = p.parseOptionalAlias()

	for isJoinStart(p.curTok.Type) {
		join, err := p.parseJoinClause()
		if err != nil {
			return nil, err
		}
		stmt.Joins = append(stmt.Joins, *join)
	}

	if p.curTok.Type == lexer.WHERE {
		p.nextToken()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}

	if p.curTok.Type == lexer.GROUP {
		p.nextToken()
		if err := p.expect(lexer.BY, "BY"); err != nil {
			return nil, err
		}
		p.nextToken()
		exprs, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = exprs
	}

	if p.curTok.Type == lexer.HAVING {
		p.nextToken()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		stmt.Having = expr
	}

	if p.curTok.Type == lexer.ORDER {
		p.nextToken()
		if err := p.expect(lexer.BY, "BY"); err != nil {
			return nil, err
		}
		p.nextToken()
		items, err := p.parseOrderItems()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = items
	}

	if p.curTok.Type == lexer.LIMIT {
		p.nextToken()
		if err := p.expect(lexer.NUMBER, "number after LIMIT"); err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(p.curTok.Literal, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid LIMIT value %q", p.curTok.Literal)
		}
		stmt.Limit = &n
		p.nextToken()
	}

	return stmt, nil
}

func (p *Parser) parseOptionalAlias() string {
	if p.curTok.Type == lexer.AS {
		p.nextToken()
		alias := p.curTok.Literal
		p.nextToken()
		return alias
	}
	if p.curTok.Type == lexer.IDENTIFIER {
		alias := p.curTok.Literal
		p.nextToken()
		return alias
	}
	return ""
}

func isJoinStart(tt lexer.TokenType) bool {
	switch tt {
	case lexer.JOIN, lexer.INNER, lexer.LEFT, lexer.RIGHT, lexer.OUTER, lexer.CROSS:
		return true
	default:
		return false
	}
}

func (p *Parser) parseJoinClause() (*ast.JoinClause, error) {
	kind := "INNER"
	switch p.curTok.Type {
	case lexer.INNER:
		p.nextToken()
	case lexer.LEFT:
		kind = "LEFT"
		p.nextToken()
		if p.curTok.Type == lexer.OUTER {
			p.nextToken()
		}
	case lexer.RIGHT:
		// Only INNER and LEFT are part of the supported join grammar; RIGHT
		// JOIN has no execution semantics, so reject it here rather than
		// silently running it as an INNER JOIN.
		return nil, p.errorf("RIGHT JOIN is not supported, use LEFT JOIN with the tables swapped")
	case lexer.CROSS:
		kind = "CROSS"
		p.nextToken()
	}
	if err := p.expect(lexer.JOIN, "JOIN"); err != nil {
		return nil, err
	}
	p.nextToken()

	if err := p.expect(lexer.IDENTIFIER, "table name after JOIN"); err != nil {
		return nil, err
	}
	jc := &ast.JoinClause{Kind: kind, Table: p.curTok.Literal}
	p.nextToken()
	jc.Alias = p.parseOptionalAlias()

	if kind == "CROSS" {
		return jc, nil
	}
	if err := p.expect(lexer.ON, "ON"); err != nil {
		return nil, err
	}
	p.nextToken()
	on, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	jc.On = on
	return jc, nil
}

func (p *Parser) parseSelectItems() ([]ast.SelectItem, error) {
	if p.curTok.Type == lexer.ASTERISK {
		p.nextToken()
		return []ast.SelectItem{{Expr: &ast.Identifier{Value: "*"}}}, nil
	}
	var items []ast.SelectItem
	for {
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		item := ast.SelectItem{Expr: expr}
		item.Alias = p.parseOptionalAlias()
		items = append(items, item)
		if p.curTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}
	return items, nil
}

func (p *Parser) parseOrderItems() ([]ast.OrderItem, error) {
	var items []ast.OrderItem
	for {
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		item := ast.OrderItem{Expr: expr}
		if p.curTok.Type == lexer.ASC {
			p.nextToken()
		} else if p.curTok.Type == lexer.DESC {
			item.Descending = true
			p.nextToken()
		}
		items = append(items, item)
		if p.curTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}
	return items, nil
}

// --- INSERT ---

func (p *Parser) parseInsert() (*ast.InsertStatement, error) {
	stmt := &ast.InsertStatement{}
	p.nextToken() // INSERT
	if err := p.expect(lexer.INTO, "INTO"); err != nil {
		return nil, err
	}
	p.nextToken()
	if err := p.expect(lexer.IDENTIFIER, "table name"); err != nil {
		return nil, err
	}
	stmt.TableName = p.curTok.Literal
	p.nextToken()

	if p.curTok.Type == lexer.PAREN_OPEN {
		cols, err := p.parseNameList()
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}

	if err := p.expect(lexer.VALUES, "VALUES"); err != nil {
		return nil, err
	}
	p.nextToken()

	row, err := p.parseExpressionTuple()
	if err != nil {
		return nil, err
	}
	stmt.Rows = append(stmt.Rows, row)

	for p.curTok.Type == lexer.COMMA {
		p.nextToken()
		row, err := p.parseExpressionTuple()
		if err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)
	}

	return stmt, nil
}

func (p *Parser) parseNameList() ([]string, error) {
	if err := p.expect(lexer.PAREN_OPEN, "("); err != nil {
		return nil, err
	}
	p.nextToken()
	var names []string
	for {
		if err := p.expect(lexer.IDENTIFIER, "identifier"); err != nil {
			return nil, err
		}
		names = append(names, p.curTok.Literal)
		p.nextToken()
		if p.curTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}
	if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
		return nil, err
	}
	p.nextToken()
	return names, nil
}

func (p *Parser) parseExpressionTuple() ([]ast.Expression, error) {
	if err := p.expect(lexer.PAREN_OPEN, "("); err != nil {
		return nil, err
	}
	p.nextToken()
	list, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
		return nil, err
	}
	p.nextToken()
	return list, nil
}

func (p *Parser) parseExpressionList() ([]ast.Expression, error) {
	var list []ast.Expression
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	list = append(list, expr)
	for p.curTok.Type == lexer.COMMA {
		p.nextToken()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
	}
	return list, nil
}

// --- UPDATE / DELETE ---

func (p *Parser) parseUpdate() (*ast.UpdateStatement, error) {
	stmt := &ast.UpdateStatement{}
	p.nextToken() // UPDATE
	if err := p.expect(lexer.IDENTIFIER, "table name"); err != nil {
		return nil, err
	}
	stmt.TableName = p.curTok.Literal
	p.nextToken()

	if err := p.expect(lexer.SET, "SET"); err != nil {
		return nil, err
	}
	p.nextToken()

	for {
		if err := p.expect(lexer.IDENTIFIER, "column name"); err != nil {
			return nil, err
		}
		col := p.curTok.Literal
		p.nextToken()
		if err := p.expect(lexer.EQUALS, "="); err != nil {
			return nil, err
		}
		p.nextToken()
		val, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		stmt.Set = append(stmt.Set, ast.Assignment{Column: col, Value: val})
		if p.curTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}

	if p.curTok.Type == lexer.WHERE {
		p.nextToken()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (*ast.DeleteStatement, error) {
	stmt := &ast.DeleteStatement{}
	p.nextToken() // DELETE
	if err := p.expect(lexer.FROM, "FROM"); err != nil {
		return nil, err
	}
	p.nextToken()
	if err := p.expect(lexer.IDENTIFIER, "table name"); err != nil {
		return nil, err
	}
	stmt.TableName = p.curTok.Literal
	p.nextToken()

	if p.curTok.Type == lexer.WHERE {
		p.nextToken()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}
	return stmt, nil
}

// --- CREATE TABLE / CREATE INDEX ---

func (p *Parser) parseCreate() (ast.Statement, error) {
	p.nextToken() // CREATE
	switch p.curTok.Type {
	case lexer.TABLE:
		return p.parseCreateTable()
	case lexer.UNIQUE:
		p.nextToken()
		if err := p.expect(lexer.INDEX, "INDEX"); err != nil {
			return nil, err
		}
		return p.parseCreateIndex(true)
	case lexer.INDEX:
		return p.parseCreateIndex(false)
	default:
		return nil, p.errorf("expected TABLE or INDEX after CREATE, got %q", p.curTok.Literal)
	}
}

func (p *Parser) parseCreateTable() (*ast.CreateTableStatement, error) {
	stmt := &ast.CreateTableStatement{}
	p.nextToken() // TABLE
	if err := p.expect(lexer.IDENTIFIER, "table name"); err != nil {
		return nil, err
	}
	stmt.TableName = p.curTok.Literal
	p.nextToken()

	if err := p.expect(lexer.PAREN_OPEN, "("); err != nil {
		return nil, err
	}
	p.nextToken()

	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, *col)
		if p.curTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}

	if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
		return nil, err
	}
	p.nextToken()
	return stmt, nil
}

func (p *Parser) parseColumnDef() (*ast.ColumnDef, error) {
	if err := p.expect(lexer.IDENTIFIER, "column name"); err != nil {
		return nil, err
	}
	col := &ast.ColumnDef{Name: p.curTok.Literal}
	p.nextToken()

	typeName, length, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	col.TypeName = typeName
	col.Length = length

	for {
		switch p.curTok.Type {
		case lexer.PRIMARY:
			p.nextToken()
			if err := p.expect(lexer.KEY, "KEY after PRIMARY"); err != nil {
				return nil, err
			}
			p.nextToken()
			col.PrimaryKey = true
			continue
		case lexer.UNIQUE:
			p.nextToken()
			col.Unique = true
			continue
		case lexer.NOT:
			p.nextToken()
			if err := p.expect(lexer.NULL, "NULL after NOT"); err != nil {
				return nil, err
			}
			p.nextToken()
			col.NotNull = true
			continue
		case lexer.REFERENCES:
			p.nextToken()
			if err := p.expect(lexer.IDENTIFIER, "referenced table name"); err != nil {
				return nil, err
			}
			col.ReferencesTbl = p.curTok.Literal
			p.nextToken()
			if p.curTok.Type == lexer.PAREN_OPEN {
				p.nextToken()
				if err := p.expect(lexer.IDENTIFIER, "referenced column name"); err != nil {
					return nil, err
				}
				col.ReferencesCol = p.curTok.Literal
				p.nextToken()
				if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
					return nil, err
				}
				p.nextToken()
			}
			if p.curTok.Type == lexer.ON {
				p.nextToken()
				if err := p.expect(lexer.DELETE, "DELETE after ON"); err != nil {
					return nil, err
				}
				p.nextToken()
				switch p.curTok.Type {
				case lexer.RESTRICT:
					col.OnDeleteRestrict = true
					p.nextToken()
				case lexer.CASCADE:
					return nil, &dberrors.SyntaxError{Pos: -1, Message: "ON DELETE CASCADE is not supported, only RESTRICT"}
				case lexer.SET:
					return nil, &dberrors.SyntaxError{Pos: -1, Message: "ON DELETE SET NULL is not supported, only RESTRICT"}
				default:
					return nil, &dberrors.SyntaxError{Pos: -1, Message: "expected RESTRICT after ON DELETE"}
				}
			}
			continue
		}
		break
	}
	return col, nil
}

func (p *Parser) parseTypeName() (string, int, error) {
	switch p.curTok.Type {
	case lexer.INT, lexer.INTEGER:
		p.nextToken()
		return "INTEGER", 0, nil
	case lexer.FLOAT:
		p.nextToken()
		return "FLOAT", 0, nil
	case lexer.BOOLEAN:
		p.nextToken()
		return "BOOLEAN", 0, nil
	case lexer.DATE:
		p.nextToken()
		return "DATE", 0, nil
	case lexer.VARCHAR:
		p.nextToken()
		length := 0
		if p.curTok.Type == lexer.PAREN_OPEN {
			p.nextToken()
			if err := p.expect(lexer.NUMBER, "length"); err != nil {
				return "", 0, err
			}
			n, err := strconv.Atoi(p.curTok.Literal)
			if err != nil {
				return "", 0, p.errorf("invalid VARCHAR length %q", p.curTok.Literal)
			}
			length = n
			p.nextToken()
			if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
				return "", 0, err
			}
			p.nextToken()
		}
		return "VARCHAR", length, nil
	default:
		return "", 0, p.errorf("expected a column type, got %q", p.curTok.Literal)
	}
}

func (p *Parser) parseCreateIndex(unique bool) (*ast.CreateIndexStatement, error) {
	stmt := &ast.CreateIndexStatement{Unique: unique}
	p.nextToken() // INDEX
	if err := p.expect(lexer.IDENTIFIER, "index name"); err != nil {
		return nil, err
	}
	stmt.IndexName = p.curTok.Literal
	p.nextToken()

	if err := p.expect(lexer.ON, "ON"); err != nil {
		return nil, err
	}
	p.nextToken()
	if err := p.expect(lexer.IDENTIFIER, "table name"); err != nil {
		return nil, err
	}
	stmt.TableName = p.curTok.Literal
	p.nextToken()

	if err := p.expect(lexer.PAREN_OPEN, "("); err != nil {
		return nil, err
	}
	p.nextToken()
	if err := p.expect(lexer.IDENTIFIER, "column name"); err != nil {
		return nil, err
	}
	stmt.Column = p.curTok.Literal
	p.nextToken()
	if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
		return nil, err
	}
	p.nextToken()
	return stmt, nil
}

func (p *Parser) parseDropTable() (*ast.DropTableStatement, error) {
	p.nextToken() // DROP
	if err := p.expect(lexer.TABLE, "TABLE"); err != nil {
		return nil, err
	}
	p.nextToken()
	if err := p.expect(lexer.IDENTIFIER, "table name"); err != nil {
		return nil, err
	}
	stmt := &ast.DropTableStatement{TableName: p.curTok.Literal}
	p.nextToken()
	return stmt, nil
}

// --- Expressions: OR < AND < NOT < comparison < additive < multiplicative < unary < primary ---

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curTok.Type == lexer.OR {
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: "OR", Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.curTok.Type == lexer.AND {
		p.nextToken()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: "AND", Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expression, error) {
	if p.curTok.Type == lexer.NOT {
		p.nextToken()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	switch p.curTok.Type {
	case lexer.EQUALS, lexer.NOT_EQUALS, lexer.LESS, lexer.LESS_EQ, lexer.GREATER, lexer.GREATER_EQ:
		op := tokenOperator(p.curTok.Type)
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Left: left, Operator: op, Right: right}, nil
	case lexer.LIKE:
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Left: left, Operator: "LIKE", Right: right}, nil
	case lexer.IS:
		p.nextToken()
		negate := false
		if p.curTok.Type == lexer.NOT {
			negate = true
			p.nextToken()
		}
		if err := p.expect(lexer.NULL, "NULL after IS"); err != nil {
			return nil, err
		}
		p.nextToken()
		return &ast.IsNullExpression{Operand: left, Negate: negate}, nil
	case lexer.IN:
		return p.parseIn(left, false)
	case lexer.NOT:
		// NOT IN
		if p.peekTok.Type == lexer.IN {
			p.nextToken() // consume NOT
			return p.parseIn(left, true)
		}
	}
	return left, nil
}

func (p *Parser) parseIn(left ast.Expression, negate bool) (ast.Expression, error) {
	p.nextToken() // IN
	if err := p.expect(lexer.PAREN_OPEN, "("); err != nil {
		return nil, err
	}
	p.nextToken()
	list, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
		return nil, err
	}
	p.nextToken()
	return &ast.InExpression{Operand: left, List: list, Negate: negate}, nil
}

func tokenOperator(tt lexer.TokenType) string {
	switch tt {
	case lexer.EQUALS:
		return "="
	case lexer.NOT_EQUALS:
		return "!="
	case lexer.LESS:
		return "<"
	case lexer.LESS_EQ:
		return "<="
	case lexer.GREATER:
		return ">"
	case lexer.GREATER_EQ:
		return ">="
	default:
		return "?"
	}
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curTok.Type == lexer.PLUS || p.curTok.Type == lexer.MINUS {
		op := "+"
		if p.curTok.Type == lexer.MINUS {
			op = "-"
		}
		p.nextToken()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curTok.Type == lexer.ASTERISK || p.curTok.Type == lexer.SLASH {
		op := "*"
		if p.curTok.Type == lexer.SLASH {
			op = "/"
		}
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.curTok.Type == lexer.MINUS {
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

var aggregateFuncs = map[lexer.TokenType]string{
	lexer.COUNT: "COUNT",
	lexer.SUM:   "SUM",
	lexer.AVG:   "AVG",
	lexer.MIN:   "MIN",
	lexer.MAX:   "MAX",
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch p.curTok.Type {
	case lexer.PAREN_OPEN:
		p.nextToken()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
			return nil, err
		}
		p.nextToken()
		return expr, nil
	case lexer.IDENTIFIER:
		name := p.curTok.Literal
		p.nextToken()
		if p.curTok.Type == lexer.DOT {
			p.nextToken()
			if err := p.expect(lexer.IDENTIFIER, "column name after '.'"); err != nil {
				return nil, err
			}
			col := p.curTok.Literal
			p.nextToken()
			return &ast.Identifier{Qualifier: name, Value: col}, nil
		}
		return &ast.Identifier{Value: name}, nil
	case lexer.STRING:
		lit := p.parseStringLiteral()
		return lit, nil
	case lexer.NUMBER:
		return p.parseNumberLiteral()
	case lexer.TRUE:
		p.nextToken()
		return &ast.Literal{Kind: ast.LitBool, Bool: true}, nil
	case lexer.FALSE:
		p.nextToken()
		return &ast.Literal{Kind: ast.LitBool, Bool: false}, nil
	case lexer.NULL:
		p.nextToken()
		return &ast.Literal{Kind: ast.LitNull}, nil
	case lexer.COUNT, lexer.SUM, lexer.AVG, lexer.MIN, lexer.MAX:
		return p.parseAggregateCall()
	default:
		return nil, p.errorf("unexpected token in expression: %q", p.curTok.Literal)
	}
}

// parseStringLiteral recognizes a strict YYYY-MM-DD quoted literal as a
// DATE, falling back to TEXT otherwise (spec.md §4.1: date literals are
// written as quoted strings).
func (p *Parser) parseStringLiteral() ast.Expression {
	val := p.curTok.Literal
	p.nextToken()
	if isDateLiteral(val) {
		return &ast.Literal{Kind: ast.LitDate, Str: val}
	}
	return &ast.Literal{Kind: ast.LitString, Str: val}
}

func isDateLiteral(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return false
	}
	for _, part := range parts {
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}
	return true
}

func (p *Parser) parseNumberLiteral() (ast.Expression, error) {
	text := p.curTok.Literal
	p.nextToken()
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &ast.Literal{Kind: ast.LitInt, Int: i}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("invalid number literal %q", text)
	}
	return &ast.Literal{Kind: ast.LitFloat, Flt: f}, nil
}

func (p *Parser) parseAggregateCall() (ast.Expression, error) {
	fn := aggregateFuncs[p.curTok.Type]
	p.nextToken()
	if err := p.expect(lexer.PAREN_OPEN, "("); err != nil {
		return nil, err
	}
	p.nextToken()
	if fn == "COUNT" && p.curTok.Type == lexer.ASTERISK {
		p.nextToken()
		if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
			return nil, err
		}
		p.nextToken()
		return &ast.AggregateCall{Func: fn, Star: true}, nil
	}
	arg, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.PAREN_CLOSE, ")"); err != nil {
		return nil, err
	}
	p.nextToken()
	return &ast.AggregateCall{Func: fn, Arg: arg}, nil
}
