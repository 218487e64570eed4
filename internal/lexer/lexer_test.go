package lexer

import (
	"kira/internal/token"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `let five = 5;
const ten = 10.5;

let add = fn(x, y) {
  x + y;
};

let result = add(five, ten);
-/*5;
5 < 10 > 5;
5 <= 10 >= 5;
2 ** 3;

if (5 < 10) {
  return true;
} else {
  return false;
}

10 == 10;
10 != 9;
true and false;
true or false;
not true;
while (x) { x }
for (i in xs) { i }
[1, 2];
{"foo": "bar"}
"foobar"
"foo bar"
"line\nbreak"
null
# a comment
5 % 2;
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.LET, "let"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.SEMICOLON, ";"},
		{token.CONST, "const"},
		{token.IDENT, "ten"},
		{token.ASSIGN, "="},
		{token.FLOAT, "10.5"},
		{token.SEMICOLON, ";"},
		{token.LET, "let"},
		{token.IDENT, "add"},
		{token.ASSIGN, "="},
		{token.FN, "fn"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.SEMICOLON, ";"},
		{token.LET, "let"},
		{token.IDENT, "result"},
		{token.ASSIGN, "="},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "five"},
		{token.COMMA, ","},
		{token.IDENT, "ten"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.MINUS, "-"},
		{token.SLASH, "/"},
		{token.ASTERISK, "*"},
		{token.INT, "5"},
		{token.SEMICOLON, ";"},
		{token.INT, "5"},
		{token.LT, "<"},
		{token.INT, "10"},
		{token.GT, ">"},
		{token.INT, "5"},
		{token.SEMICOLON, ";"},
		{token.INT, "5"},
		{token.LT_EQ, "<="},
		{token.INT, "10"},
		{token.GT_EQ, ">="},
		{token.INT, "5"},
		{token.SEMICOLON, ";"},
		{token.INT, "2"},
		{token.STARSTAR, "**"},
		{token.INT, "3"},
		{token.SEMICOLON, ";"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.INT, "5"},
		{token.LT, "<"},
		{token.INT, "10"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.INT, "10"},
		{token.EQ, "=="},
		{token.INT, "10"},
		{token.SEMICOLON, ";"},
		{token.INT, "10"},
		{token.NOT_EQ, "!="},
		{token.INT, "9"},
		{token.SEMICOLON, ";"},
		{token.TRUE, "true"},
		{token.AND, "and"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.TRUE, "true"},
		{token.OR, "or"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.NOT, "not"},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.WHILE, "while"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.RBRACE, "}"},
		{token.FOR, "for"},
		{token.LPAREN, "("},
		{token.IDENT, "i"},
		{token.IN, "in"},
		{token.IDENT, "xs"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "i"},
		{token.RBRACE, "}"},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.RBRACKET, "]"},
		{token.SEMICOLON, ";"},
		{token.LBRACE, "{"},
		{token.STRING, "foo"},
		{token.COLON, ":"},
		{token.STRING, "bar"},
		{token.RBRACE, "}"},
		{token.STRING, "foobar"},
		{token.STRING, "foo bar"},
		{token.STRING, "line\nbreak"},
		{token.NULL, "null"},
		{token.INT, "5"},
		{token.PERCENT, "%"},
		{token.INT, "2"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"unterminated`)

	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL token, got %q", tok.Type)
	}
	if l.Err() == nil {
		t.Fatalf("expected a lex error to be recorded")
	}

	// Lexer stays sticky at EOF after an error.
	tok2 := l.NextToken()
	if tok2.Type != token.EOF {
		t.Fatalf("expected EOF after error, got %q", tok2.Type)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("let x = @;")

	var lastType token.TokenType
	for i := 0; i < 10; i++ {
		tok := l.NextToken()
		lastType = tok.Type
		if tok.Type == token.ILLEGAL || tok.Type == token.EOF {
			break
		}
	}
	if lastType != token.ILLEGAL {
		t.Fatalf("expected an ILLEGAL token for '@', got %q", lastType)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	input := "let x = 1;\nlet y = 2;"
	l := New(input)

	var tok token.Token
	for {
		tok = l.NextToken()
		if tok.Type == token.IDENT && tok.Literal == "y" {
			break
		}
		if tok.Type == token.EOF {
			t.Fatalf("did not find identifier 'y'")
		}
	}
	if tok.Line != 2 {
		t.Fatalf("expected 'y' on line 2, got line %d", tok.Line)
	}
}
