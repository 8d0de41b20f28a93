package lsp_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CapZTr/lime/internal/lsp"
	"github.com/CapZTr/lime/internal/network"
)

const source = `# fa
input a b
xor s = a !b
output f = s
`

const uri = "file:///work/fa.net"

type recorder struct {
	published []*protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{Notify: func(method string, params any) {
		if method == protocol.ServerTextDocumentPublishDiagnostics {
			r.published = append(r.published, params.(*protocol.PublishDiagnosticsParams))
		}
	}}
}

func (r *recorder) last(t *testing.T) []protocol.Diagnostic {
	require.NotEmpty(t, r.published)
	return r.published[len(r.published)-1].Diagnostics
}

func open(t *testing.T, h *lsp.Handler, r *recorder, text string) {
	err := h.TextDocumentDidOpen(r.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "netlist", Text: text},
	})
	require.NoError(t, err)
}

func TestDiagnosticsOnOpenAndChange(t *testing.T) {
	h := lsp.NewHandler(network.MIG)
	r := &recorder{}

	open(t, h, r, "input a\nand g = a zz\noutput f = g\n")
	diags := r.last(t)
	require.Len(t, diags, 1)
	assert.Equal(t, uint32(1), diags[0].Range.Start.Line)
	assert.Equal(t, uint32(10), diags[0].Range.Start.Character)
	assert.Equal(t, uint32(12), diags[0].Range.End.Character)
	assert.Equal(t, "E0101", diags[0].Code.Value)
	assert.Contains(t, diags[0].Message, "undefined signal 'zz'")

	err := h.TextDocumentDidChange(r.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri}},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: source}},
	})
	require.NoError(t, err)
	assert.Empty(t, r.last(t))
	assert.Equal(t, uri, r.published[len(r.published)-1].URI)
}

func TestDiagnosticWithoutPosition(t *testing.T) {
	h := lsp.NewHandler(network.AIG)
	r := &recorder{}

	open(t, h, r, "input a\n")
	diags := r.last(t)
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.Position{}, diags[0].Range.Start)
	assert.Contains(t, diags[0].Message, "no outputs")
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
}

func TestChangeOfUnknownDocument(t *testing.T) {
	h := lsp.NewHandler(network.MIG)
	err := h.TextDocumentDidChange(&glsp.Context{}, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri}},
	})
	assert.Error(t, err)
}

func TestCompletion(t *testing.T) {
	h := lsp.NewHandler(network.MIG)
	r := &recorder{}
	open(t, h, r, source)

	res, err := h.TextDocumentCompletion(r.context(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}},
	})
	require.NoError(t, err)
	list := res.(*protocol.CompletionList)

	labels := map[string]string{}
	for _, item := range list.Items {
		detail := ""
		if item.Detail != nil {
			detail = *item.Detail
		}
		labels[item.Label] = detail
	}
	assert.Equal(t, "gate", labels["maj"])
	assert.Equal(t, "gate", labels["nand"])
	assert.Contains(t, labels, "input")
	assert.Equal(t, "input", labels["a"])
	assert.Equal(t, "xor gate", labels["s"])
	assert.Equal(t, "output", labels["f"])
}

func TestHover(t *testing.T) {
	h := lsp.NewHandler(network.MIG)
	r := &recorder{}
	open(t, h, r, source)

	hover := func(line, char uint32) *protocol.Hover {
		res, err := h.TextDocumentHover(r.context(), &protocol.HoverParams{
			TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: uri},
				Position:     protocol.Position{Line: line, Character: char},
			},
		})
		require.NoError(t, err)
		return res
	}

	res := hover(3, 11)
	require.NotNil(t, res)
	content := res.Contents.(protocol.MarkupContent)
	assert.Contains(t, content.Value, "**s** xor gate")
	assert.Contains(t, content.Value, "mig network: 2 inputs, 1 outputs")

	assert.Nil(t, hover(1, 0), "keywords have no hover")
	assert.Nil(t, hover(9, 0))
}

func TestSemanticTokensFull(t *testing.T) {
	h := lsp.NewHandler(network.MIG)
	r := &recorder{}
	open(t, h, r, source)

	tokens, err := h.TextDocumentSemanticTokensFull(r.context(), &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err)
	require.Len(t, decoded, 14)

	assertToken(t, &decoded[0], 1, 1, 4, "comment", nil)
	assertToken(t, &decoded[1], 2, 1, 5, "keyword", nil)
	assertToken(t, &decoded[2], 2, 7, 1, "variable", []string{"declaration"})
	assertToken(t, &decoded[3], 2, 9, 1, "variable", []string{"declaration"})
	assertToken(t, &decoded[4], 3, 1, 3, "keyword", nil)
	assertToken(t, &decoded[5], 3, 5, 1, "variable", []string{"declaration"})
	assertToken(t, &decoded[6], 3, 7, 1, "operator", nil)
	assertToken(t, &decoded[7], 3, 9, 1, "variable", nil)
	assertToken(t, &decoded[8], 3, 11, 1, "operator", nil)
	assertToken(t, &decoded[9], 3, 12, 1, "variable", nil)
	assertToken(t, &decoded[10], 4, 1, 6, "keyword", nil)
	assertToken(t, &decoded[11], 4, 8, 1, "variable", []string{"declaration"})
	assertToken(t, &decoded[12], 4, 10, 1, "operator", nil)
	assertToken(t, &decoded[13], 4, 12, 1, "variable", nil)
}

func TestSemanticTokensFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maj.net")
	require.NoError(t, os.WriteFile(path, []byte("input a b c\nmaj m = a b 1\noutput f = m\n"), 0o644))

	h := lsp.NewHandler(network.MIG)
	tokens, err := h.TextDocumentSemanticTokensFull(&glsp.Context{}, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file://" + filepath.ToSlash(path)},
	})
	require.NoError(t, err)
	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err)
	assertToken(t, &decoded[9], 2, 13, 1, "number", nil)

	_, err = h.TextDocumentSemanticTokensFull(&glsp.Context{}, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///does/not/exist.net"},
	})
	assert.Error(t, err)
}

func TestProtocolWiring(t *testing.T) {
	h := lsp.NewHandler(network.XAG)
	p := h.Protocol()
	assert.NotNil(t, p.Initialize)
	assert.NotNil(t, p.TextDocumentSemanticTokensFull)

	res, err := h.Initialize(&glsp.Context{}, &protocol.InitializeParams{})
	require.NoError(t, err)
	caps := res.(*protocol.InitializeResult).Capabilities
	require.NotNil(t, caps.SemanticTokensProvider)
	assert.Equal(t, lsp.SemanticTokenTypes, caps.SemanticTokensProvider.(*protocol.SemanticTokensOptions).Legend.TokenTypes)
}

type DecodedToken struct {
	Line      uint32
	Char      uint32
	Length    uint32
	Type      string
	Modifiers []string
}

func decodeSemanticTokens(raw []uint32) ([]DecodedToken, error) {
	if len(raw)%5 != 0 {
		return nil, fmt.Errorf("raw token data length %d is not a multiple of 5", len(raw))
	}

	var (
		decoded []DecodedToken
		line    uint32
		char    uint32
	)

	for i := 0; i < len(raw); i += 5 {
		if raw[i] == 0 {
			char += raw[i+1]
		} else {
			line += raw[i]
			char = raw[i+1]
		}

		var modifiers []string
		for j, name := range lsp.SemanticTokenModifiers {
			if raw[i+4]&(1<<j) != 0 {
				modifiers = append(modifiers, name)
			}
		}

		decoded = append(decoded, DecodedToken{
			Line:      line + 1,
			Char:      char + 1,
			Length:    raw[i+2],
			Type:      lsp.SemanticTokenTypes[raw[i+3]],
			Modifiers: modifiers,
		})
	}

	return decoded, nil
}

func assertToken(t *testing.T, token *DecodedToken, line, char, length uint32, typ string, modifiers []string) {
	t.Helper()
	require.Equal(t, line, token.Line, "line mismatch")
	require.Equal(t, char, token.Char, "char mismatch")
	require.Equal(t, length, token.Length, "length mismatch")
	require.Equal(t, typ, token.Type, "type mismatch")
	require.ElementsMatch(t, modifiers, token.Modifiers, "modifiers mismatch")
}
