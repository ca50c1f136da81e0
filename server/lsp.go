package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/liveprog/liveprog"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "liveprog-lsp"

// LspServer shows the live variables of the running program in an editor
// open on liveprog scripts.
type LspServer struct {
	worker *Worker

	mu   sync.Mutex
	docs map[string]*liveprog.Script // URI → parsed document

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates an LSP server reading variables through worker.
func NewLSP(worker *Worker) *LspServer {
	s := &LspServer{
		worker:  worker,
		docs:    make(map[string]*liveprog.Script),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "liveprog LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	script := s.open(string(uri), params.TextDocument.Text)
	s.publishDiagnostics(ctx, uri, script)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			script := s.open(string(uri), whole.Text)
			s.publishDiagnostics(ctx, uri, script)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) open(uri, text string) *liveprog.Script {
	script := liveprog.Parse(text)
	s.mu.Lock()
	s.docs[uri] = script
	s.mu.Unlock()
	return script
}

func (s *LspServer) doc(uri protocol.DocumentUri) (*liveprog.Script, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	script, ok := s.docs[string(uri)]
	return script, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	script, ok := s.doc(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(script.Source, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return s.complete(prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	script, ok := s.doc(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(script.Source, params.Position)
	if word == "" {
		return nil, nil
	}
	return s.hover(script, word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	script, ok := s.doc(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(script.Source, params.Position)
	p := script.Param(word)
	if p == nil {
		return nil, nil
	}

	line := protocol.UInteger(p.Line() - 1)
	return []protocol.Location{{
		URI: params.TextDocument.URI,
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: 0},
			End:   protocol.Position{Line: line, Character: protocol.UInteger(len(p.Key))},
		},
	}}, nil
}

// complete lists live variables whose names start with prefix.
func (s *LspServer) complete(prefix string) []protocol.CompletionItem {
	vars, err := s.worker.Access().Enumerate()
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindVariable
	for _, v := range vars {
		if seen[v.Name] || !strings.HasPrefix(v.Name, prefix) {
			continue
		}
		seen[v.Name] = true
		detail := fmt.Sprintf("%s = %s", v.Value.Kind, v.Value)
		name := v.Name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &name,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// hover describes word from the live table and, if it is a declared
// parameter, from its declaration.
func (s *LspServer) hover(script *liveprog.Script, word string) *protocol.Hover {
	var b strings.Builder

	if val, err := s.worker.Access().Lookup(word); err == nil {
		if val.IsString() {
			fmt.Fprintf(&b, "**%s** = `%q` (string)", word, val.Str)
		} else {
			fmt.Fprintf(&b, "**%s** = `%s`", word, val)
		}
	}

	if p := script.Param(word); p != nil {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s\n\nrange %v to %v, step %v", p.Description, p.Min, p.Max, p.Step)
		if def, ok := p.Default(); ok {
			fmt.Fprintf(&b, ", default %v", def)
		}
		if p.IsList() {
			fmt.Fprintf(&b, "\n\noptions: %s", strings.Join(p.Options, ", "))
		}
	}

	if b.Len() == 0 {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, script *liveprog.Script) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics(script),
	})
}

func diagnostics(script *liveprog.Script) []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	severity := protocol.DiagnosticSeverityWarning
	source := lspName
	for _, d := range script.Diagnostics {
		line := protocol.UInteger(d.Line - 1)
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: 0},
				End:   protocol.Position{Line: line, Character: protocol.UInteger(len(d.Key))},
			},
			Severity: &severity,
			Source:   &source,
			Message:  fmt.Sprintf("parameter %s ignored: %s", d.Key, d.Message),
		})
	}
	return out
}

// extractPrefix returns the identifier fragment ending at the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := min(int(pos.Character), len(line))

	start := col
	for start > 0 && isIdent(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := min(int(pos.Character), len(line))

	start := col
	for start > 0 && isIdent(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isIdent(rune(line[end])) {
		end++
	}
	return line[start:end]
}

func isIdent(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func boolPtr(b bool) *bool {
	return &b
}
