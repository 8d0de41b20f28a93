package netlist

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var netlistLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `#[^\n]*`, nil},
		{"Newline", `\r?\n`, nil},
		{"Whitespace", `[ \t]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_.\[\]]*`, nil},
		{"Number", `[0-9]+`, nil},
		{"Punct", `[=!,]`, nil},
	},
})

// File is a netlist: one statement per line.
type File struct {
	Statements []*Statement `Newline* ( @@ ( Newline+ | EOF ) )*`
}

type Statement struct {
	Input  *InputDecl  `  @@`
	Output *OutputDecl `| @@`
	Gate   *GateDecl   `| @@`
}

type InputDecl struct {
	Pos   lexer.Position
	Names []*Name `"input" @@ ( ","? @@ )*`
}

type OutputDecl struct {
	Pos     lexer.Position
	Name    *Name    `"output" @@ "="`
	Operand *Operand `@@`
}

type GateDecl struct {
	Pos      lexer.Position
	Op       string     `@Ident`
	Name     *Name      `@@ "="`
	Operands []*Operand `@@ ( ","? @@ )*`
}

type Name struct {
	Pos   lexer.Position
	Value string `@Ident`
}

type Operand struct {
	Pos      lexer.Position
	Negation []string `@"!"*`
	Const    *string  `( @Number`
	Name     string   `| @Ident )`
}

// Complemented reports whether the operand carries an odd number of "!".
func (o *Operand) Complemented() bool {
	return len(o.Negation)%2 == 1
}

// Token is a lexical token of netlist source. Whitespace is dropped.
type Token struct {
	Type  string // Comment, Newline, Ident, Number or Punct
	Value string
	Pos   lexer.Position
}

// Lex splits source into tokens. It stops at the first character the
// netlist lexer does not accept and returns the tokens read so far.
func Lex(filename, source string) ([]Token, error) {
	lex, err := netlistLexer.LexString(filename, source)
	if err != nil {
		return nil, err
	}
	names := lexer.SymbolsByRune(netlistLexer)
	var out []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return out, syntaxError(err)
		}
		if tok.EOF() {
			return out, nil
		}
		name := names[tok.Type]
		if name == "Whitespace" {
			continue
		}
		out = append(out, Token{Type: name, Value: tok.Value, Pos: tok.Pos})
	}
}
