package lsp

import (
	"fmt"

	"github.com/CapZTr/lime/internal/netlist"
)

// indices into SemanticTokenTypes
const (
	tokenKeyword = iota
	tokenVariable
	tokenNumber
	tokenOperator
	tokenComment
)

const declaration = 1 << 0

// semanticToken is one highlighted range. line and start are 0-based.
type semanticToken struct {
	line, start, length uint32
	tokenType           int
	modifiers           int

	value  string
	detail string // how a declared signal is defined
}

// classify walks the token stream line by line. The first word of a line
// is its keyword; the word before "=" is declared and the words after it
// are references. Every word of an input line is declared.
func classify(tokens []netlist.Token) []semanticToken {
	var out []semanticToken
	var keyword string
	afterEquals := false

	for _, t := range tokens {
		st := semanticToken{
			line:   uint32(max(t.Pos.Line-1, 0)),
			start:  uint32(max(t.Pos.Column-1, 0)),
			length: uint32(len(t.Value)),
			value:  t.Value,
		}
		switch t.Type {
		case "Newline":
			keyword, afterEquals = "", false
			continue
		case "Comment":
			st.tokenType = tokenComment
		case "Number":
			st.tokenType = tokenNumber
		case "Punct":
			switch t.Value {
			case "=":
				afterEquals = true
			case ",":
				continue
			}
			st.tokenType = tokenOperator
		case "Ident":
			switch {
			case keyword == "":
				keyword = t.Value
				st.tokenType = tokenKeyword
			case keyword == "input":
				st.tokenType, st.modifiers = tokenVariable, declaration
				st.detail = "input"
			case !afterEquals:
				st.tokenType, st.modifiers = tokenVariable, declaration
				if keyword == "output" {
					st.detail = "output"
				} else {
					st.detail = fmt.Sprintf("%s gate", keyword)
				}
			default:
				st.tokenType = tokenVariable
			}
		default:
			continue
		}
		out = append(out, st)
	}
	return out
}

// encodeTokens packs tokens into the relative five-integer layout of the
// semantic tokens response.
func encodeTokens(tokens []semanticToken) []uint32 {
	data := make([]uint32, 0, 5*len(tokens))
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.line - prevLine
		deltaStart := token.start
		if deltaLine == 0 {
			deltaStart = token.start - prevStart
		}
		data = append(data, deltaLine, deltaStart, token.length, uint32(token.tokenType), uint32(token.modifiers))
		prevLine, prevStart = token.line, token.start
	}
	return data
}
