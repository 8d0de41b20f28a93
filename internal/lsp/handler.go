// Package lsp serves netlist files to editors over the language server
// protocol: diagnostics from the netlist parser, completion of gates and
// signal names, hover summaries and semantic highlighting.
package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CapZTr/lime/internal/netlist"
	"github.com/CapZTr/lime/internal/network"
)

var log = commonlog.GetLogger("lime.lsp")

// SemanticTokenTypes is the token type legend, indexed by semantic token data.
var SemanticTokenTypes = []string{
	"keyword",
	"variable",
	"number",
	"operator",
	"comment",
}

// SemanticTokenModifiers is the modifier legend; bit i selects entry i.
var SemanticTokenModifiers = []string{
	"declaration",
	"readonly",
}

type document struct {
	text   string
	design *netlist.Design // nil while the text does not elaborate
}

// Handler implements the language server for netlist files.
type Handler struct {
	Technology network.Technology

	mu   sync.RWMutex
	docs map[string]*document
}

// NewHandler returns a handler that elaborates documents as tech networks.
func NewHandler(tech network.Technology) *Handler {
	return &Handler{
		Technology: tech,
		docs:       make(map[string]*document),
	}
}

// Protocol wires the handler into a glsp protocol handler.
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		SetTrace:                       h.SetTrace,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentCompletion:         h.TextDocumentCompletion,
		TextDocumentHover:              h.TextDocumentHover,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			HoverProvider: ptrBool(true),
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Info("shutdown")
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Debugf("opened %s", params.TextDocument.URI)
	h.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	text, ok := h.text(params.TextDocument.URI)
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text, ok = c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text, ok = c.Text, true
			}
		}
	}
	if !ok {
		return fmt.Errorf("no content for %s", params.TextDocument.URI)
	}
	h.update(ctx, params.TextDocument.URI, text)
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.mu.Lock()
	delete(h.docs, params.TextDocument.URI)
	h.mu.Unlock()
	return nil
}

// TextDocumentCompletion offers the statement keywords, the gate operators
// and every signal the document defines.
func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	keyword := protocol.CompletionItemKindKeyword
	variable := protocol.CompletionItemKindVariable

	var items []protocol.CompletionItem
	for _, k := range []string{"input", "output"} {
		items = append(items, protocol.CompletionItem{Label: k, Kind: &keyword})
	}
	for _, g := range netlist.GateNames() {
		items = append(items, protocol.CompletionItem{Label: g, Kind: &keyword, Detail: ptrString("gate")})
	}

	text, _ := h.text(params.TextDocument.URI)
	tokens, _ := netlist.Lex(params.TextDocument.URI, text)
	seen := map[string]bool{}
	for _, t := range classify(tokens) {
		if t.modifiers&declaration == 0 || seen[t.value] {
			continue
		}
		seen[t.value] = true
		items = append(items, protocol.CompletionItem{Label: t.value, Kind: &variable, Detail: ptrString(t.detail)})
	}

	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

// TextDocumentHover describes the signal under the cursor and, when the
// document elaborates, the size of its network.
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	h.mu.RLock()
	doc, ok := h.docs[params.TextDocument.URI]
	h.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	tokens, _ := netlist.Lex(params.TextDocument.URI, doc.text)
	classified := classify(tokens)
	var hit *semanticToken
	for i := range classified {
		t := &classified[i]
		if t.line == params.Position.Line && t.start <= params.Position.Character && params.Position.Character < t.start+t.length {
			hit = t
			break
		}
	}
	if hit == nil || hit.tokenType != tokenVariable {
		return nil, nil
	}

	var b strings.Builder
	for _, t := range classified {
		if t.value == hit.value && t.modifiers&declaration != 0 {
			fmt.Fprintf(&b, "**%s** %s", hit.value, t.detail)
			break
		}
	}
	if b.Len() == 0 {
		fmt.Fprintf(&b, "**%s** is undefined", hit.value)
	}
	if doc.design != nil {
		n := doc.design.Network
		fmt.Fprintf(&b, "\n\n%s network: %d inputs, %d outputs, %d gates", n.Technology(), n.NumInputs(), n.NumOutputs(), n.NumGates())
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: b.String()},
		Range: &protocol.Range{
			Start: protocol.Position{Line: hit.line, Character: hit.start},
			End:   protocol.Position{Line: hit.line, Character: hit.start + hit.length},
		},
	}, nil
}

// TextDocumentSemanticTokensFull highlights a whole document. Documents the
// editor has not opened are read from disk.
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	rawURI := params.TextDocument.URI

	text, ok := h.text(rawURI)
	if !ok {
		path, err := uriToPath(rawURI)
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		text = string(content)
	}

	tokens, _ := netlist.Lex(rawURI, text)
	return &protocol.SemanticTokens{Data: encodeTokens(classify(tokens))}, nil
}

func (h *Handler) text(uri string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	doc, ok := h.docs[uri]
	if !ok {
		return "", false
	}
	return doc.text, true
}

func (h *Handler) update(ctx *glsp.Context, uri, text string) {
	design, err := netlist.Parse(uri, text, h.Technology)

	h.mu.Lock()
	h.docs[uri] = &document{text: text, design: design}
	h.mu.Unlock()

	sendDiagnosticNotification(ctx, uri, Diagnostics(text, err))
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// /C:/... on Windows
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	log.Debugf("%d diagnostics for %s", len(diagnostics), uri)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrString(s string) *string {
	return &s
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
