package lexer

import "testing"

func TestTokenizeSelect(t *testing.T) {
	input := `SELECT id, name FROM users WHERE age >= 18 AND name != 'bob';`
	toks, err := Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TokenType{
		SELECT, IDENTIFIER, COMMA, IDENTIFIER, FROM, IDENTIFIER,
		WHERE, IDENTIFIER, GREATER_EQ, NUMBER, AND, IDENTIFIER, NOT_EQUALS, STRING, SEMICOLON,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got type %d, want %d (literal %q)", i, toks[i].Type, tt, toks[i].Literal)
		}
	}
}

func TestEscapedQuote(t *testing.T) {
	toks, err := Tokenize(`SELECT * FROM t WHERE name = 'O''Brien'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got string
	for _, tok := range toks {
		if tok.Type == STRING {
			got = tok.Literal
		}
	}
	if got != "O'Brien" {
		t.Fatalf("got %q, want %q", got, "O'Brien")
	}
}

func TestCommentSkipped(t *testing.T) {
	toks, err := Tokenize("SELECT * FROM t -- trailing comment\nWHERE x = 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) == 0 || toks[len(toks)-1].Type != NUMBER {
		t.Fatalf("comment not skipped: %+v", toks)
	}
}

func TestQualifiedIdentifierDot(t *testing.T) {
	toks, err := Tokenize("SELECT users.id FROM users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundDot := false
	for _, tok := range toks {
		if tok.Type == DOT {
			foundDot = true
		}
	}
	if !foundDot {
		t.Fatalf("expected a DOT token: %+v", toks)
	}
}

func TestIllegalToken(t *testing.T) {
	if _, err := Tokenize("SELECT # FROM t"); err == nil {
		t.Fatal("expected an error for illegal token")
	}
}
