// Package reader implements the HQL reader (spec.md §4.1): text plus a file
// path in, an ordered sequence of S-expression nodes with per-node source
// positions out. It fuses tokenization and structural parsing into one
// rune-by-rune scan, the way a Lisp reader conventionally does, adapting
// the teacher's rune-scanning Lexer (runtime/lexer/lexer.go) — position
// tracking, a debug logger, escape handling — to a bracket-structured
// S-expression grammar instead of a keyword-driven shell grammar.
package reader

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/internal/xlog"
)

// Reader scans HQL source text into S-expression nodes.
type Reader struct {
	src    string
	file   string
	pos    int // byte offset
	line   int
	column int // UTF-16 code units, per spec.md §4.1

	logger *slog.Logger

	// brackets tracks unmatched opening delimiters for precise
	// "unmatched bracket" diagnostics, grounded on the teacher's
	// runtime/parser.BracketTracker.
	brackets []bracketFrame
}

type bracketFrame struct {
	open rune
	pos  diag.Position
}

// New creates a Reader over src, attributing positions to file.
func New(src, file string) *Reader {
	return &Reader{
		src:    src,
		file:   file,
		line:   1,
		column: 1,
		logger: xlog.New("reader", false),
	}
}

// WithLogger overrides the default logger (used by the Entry API to thread
// a shared --verbose logger through every stage).
func (r *Reader) WithLogger(l *slog.Logger) *Reader {
	r.logger = l
	return r
}

// ReadAll reads every top-level form in the source, per spec.md §4.1.
func ReadAll(src, file string) ([]*ast.Node, error) {
	return New(src, file).ReadAll()
}

// ReadAll drives the reader to end of input.
func (r *Reader) ReadAll() ([]*ast.Node, error) {
	var forms []*ast.Node
	for {
		r.skipAtmosphere()
		if r.atEOF() {
			break
		}
		form, err := r.readForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	if len(r.brackets) > 0 {
		top := r.brackets[len(r.brackets)-1]
		return nil, r.errorf(top.pos, "unterminated %q starting here", string(top.open))
	}
	return forms, nil
}

func (r *Reader) pos0() diag.Position {
	return diag.Position{File: r.file, Line: r.line, Column: r.column}
}

func (r *Reader) errorf(pos diag.Position, format string, args ...any) error {
	e := diag.New(diag.KindRead, pos, fmt.Sprintf(format, args...))
	r.logger.Debug("read error", "pos", pos.String(), "message", e.Message)
	return e
}

func (r *Reader) atEOF() bool {
	return r.pos >= len(r.src)
}

func (r *Reader) peekRune() (rune, int) {
	if r.atEOF() {
		return 0, 0
	}
	ch, size := utf8.DecodeRuneInString(r.src[r.pos:])
	return ch, size
}

func (r *Reader) peekAt(offset int) (rune, int) {
	p := r.pos
	for i := 0; i < offset; i++ {
		_, size := utf8.DecodeRuneInString(r.src[p:])
		if size == 0 {
			return 0, 0
		}
		p += size
	}
	if p >= len(r.src) {
		return 0, 0
	}
	ch, size := utf8.DecodeRuneInString(r.src[p:])
	return ch, size
}

// advance consumes one rune, updating line/UTF-16-column tracking.
func (r *Reader) advance() rune {
	ch, size := r.peekRune()
	if size == 0 {
		return 0
	}
	r.pos += size
	if ch == '\n' {
		r.line++
		r.column = 1
	} else {
		r.column += utf16Width(ch)
	}
	return ch
}

// utf16Width reports how many UTF-16 code units ch occupies — 2 for
// characters outside the basic multilingual plane, 1 otherwise
// (spec.md §4.1: "line and UTF-16 column are tracked").
func utf16Width(ch rune) int {
	if ch > 0xFFFF {
		return 2
	}
	return 1
}

func (r *Reader) skipAtmosphere() {
	for {
		ch, size := r.peekRune()
		if size == 0 {
			return
		}
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == ',':
			// Commas are insignificant whitespace, as in most Lisp readers.
			r.advance()
		case ch == ';':
			r.skipLineComment()
		case ch == '/' && r.peekNext() == '/':
			r.skipLineComment()
		case ch == '/' && r.peekNext() == '*':
			r.skipBlockComment()
		default:
			return
		}
	}
}

func (r *Reader) peekNext() rune {
	ch, _ := r.peekAt(1)
	return ch
}

func (r *Reader) skipLineComment() {
	for {
		ch, size := r.peekRune()
		if size == 0 || ch == '\n' {
			return
		}
		r.advance()
	}
}

func (r *Reader) skipBlockComment() {
	r.advance() // '/'
	r.advance() // '*'
	for {
		ch, size := r.peekRune()
		if size == 0 {
			// Unterminated block comments are tolerated at EOF rather than
			// rejected, matching the reader's line-comment-at-EOF behavior.
			return
		}
		if ch == '*' && r.peekNext() == '/' {
			r.advance()
			r.advance()
			return
		}
		r.advance()
	}
}

// readForm reads one complete S-expression, expanding reader macros.
func (r *Reader) readForm() (*ast.Node, error) {
	r.skipAtmosphere()
	start := r.pos0()
	ch, size := r.peekRune()
	if size == 0 {
		return nil, r.errorf(start, "unexpected end of input")
	}

	switch {
	case ch == '(':
		return r.readList('(', ')', start)
	case ch == '[':
		return r.readBracketed('[', ']', "vector", start)
	case ch == '{':
		return r.readBracketed('{', '}', "__hql_hash_map", start)
	case ch == ')' || ch == ']' || ch == '}':
		return nil, r.errorf(start, "unexpected %q with no matching opening bracket", string(ch))
	case ch == '\'':
		return r.readPrefixForm("quote", start)
	case ch == '`' && r.peekNext() == '(':
		// Backtick immediately followed by '(' reads as quasiquote of the
		// list form; any other immediate successor opens a template-literal
		// string (spec.md §4.1 resolved ambiguity — both productions share
		// the backtick character, so the reader disambiguates on the very
		// next rune rather than requiring a distinct delimiter).
		return r.readPrefixForm("quasiquote", start)
	case ch == '~':
		if r.peekNext() == '@' {
			return r.readSplicePrefixForm("unquote-splicing", start)
		}
		return r.readPrefixForm("unquote", start)
	case ch == '"' || ch == '`':
		return r.readString(start)
	default:
		return r.readAtom(start)
	}
}

func (r *Reader) readPrefixForm(head string, start diag.Position) (*ast.Node, error) {
	r.advance() // the reader-macro character
	inner, err := r.readForm()
	if err != nil {
		return nil, err
	}
	return ast.List(metaFrom(start), ast.Sym(head, metaFrom(start)), inner), nil
}

func (r *Reader) readSplicePrefixForm(head string, start diag.Position) (*ast.Node, error) {
	r.advance() // '~'
	r.advance() // '@'
	inner, err := r.readForm()
	if err != nil {
		return nil, err
	}
	return ast.List(metaFrom(start), ast.Sym(head, metaFrom(start)), inner), nil
}

func metaFrom(pos diag.Position) ast.Meta {
	return ast.Meta{Pos: pos}
}

func (r *Reader) readList(open, close rune, start diag.Position) (*ast.Node, error) {
	r.advance() // consume open
	r.brackets = append(r.brackets, bracketFrame{open: open, pos: start})

	var children []*ast.Node
	for {
		r.skipAtmosphere()
		ch, size := r.peekRune()
		if size == 0 {
			return nil, r.errorf(start, "unterminated list starting here")
		}
		if ch == close {
			r.advance()
			r.brackets = r.brackets[:len(r.brackets)-1]
			end := r.pos0()
			node := ast.List(metaFrom(start), children...)
			node.Meta.Pos.EndLine, node.Meta.Pos.EndColumn = end.Line, end.Column
			return node, nil
		}
		if ch == ')' || ch == ']' || ch == '}' {
			return nil, r.errorf(r.pos0(), "mismatched bracket %q, expected %q", string(ch), string(close))
		}
		child, err := r.readForm()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
}

func (r *Reader) readBracketed(open, close rune, headSymbol string, start diag.Position) (*ast.Node, error) {
	list, err := r.readList(open, close, start)
	if err != nil {
		return nil, err
	}
	children := append([]*ast.Node{ast.Sym(headSymbol, metaFrom(start))}, list.Children...)
	wrapped := ast.List(list.Meta, children...)
	return wrapped, nil
}

// readString reads a double-quoted or backtick template-literal string.
// Backtick strings are read as a (str ...) call whose arguments alternate
// literal-string parts and nested interpolation expressions, expanded
// during lowering (spec.md §4.1).
func (r *Reader) readString(start diag.Position) (*ast.Node, error) {
	quote := r.advance() // '"' or '`'
	isTemplate := quote == '`'

	var parts []*ast.Node
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 || len(parts) == 0 {
			parts = append(parts, ast.Str(sb.String(), metaFrom(r.pos0())))
			sb.Reset()
		}
	}

	for {
		ch, size := r.peekRune()
		if size == 0 {
			return nil, r.errorf(start, "unterminated string literal")
		}
		if ch == quote {
			r.advance()
			break
		}
		if ch == '\\' {
			r.advance()
			esc, err := r.readEscape(quote)
			if err != nil {
				return nil, err
			}
			sb.WriteRune(esc)
			continue
		}
		if isTemplate && ch == '$' && r.peekNext() == '{' {
			flush()
			r.advance() // '$'
			r.advance() // '{'
			r.skipAtmosphere()
			expr, err := r.readForm()
			if err != nil {
				return nil, err
			}
			parts = append(parts, expr)
			r.skipAtmosphere()
			closeCh, closeSize := r.peekRune()
			if closeSize == 0 || closeCh != '}' {
				return nil, r.errorf(r.pos0(), "unterminated ${...} interpolation")
			}
			r.advance()
			continue
		}
		sb.WriteRune(r.advance())
	}

	if !isTemplate {
		return ast.Str(sb.String(), metaFrom(start)), nil
	}

	flush()
	headMeta := metaFrom(start)
	children := append([]*ast.Node{ast.Sym("str", headMeta)}, parts...)
	return ast.List(headMeta, children...), nil
}

// readEscape handles \n \t \r \\ \" \0 \xNN \uNNNN plus the HQL-specific
// \` for an embedded backtick inside any string (spec.md §4.1).
func (r *Reader) readEscape(quote rune) (rune, error) {
	ch, size := r.peekRune()
	if size == 0 {
		return 0, r.errorf(r.pos0(), "unterminated escape sequence")
	}
	r.advance()
	switch ch {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\':
		return '\\', nil
	case '"':
		return '"', nil
	case '`':
		return '`', nil
	case '\'':
		return '\'', nil
	case '$':
		return '$', nil
	case 'x', 'u':
		digits := 2
		if ch == 'u' {
			digits = 4
		}
		if r.pos+digits > len(r.src) {
			return 0, r.errorf(r.pos0(), "invalid escape sequence \\%c", ch)
		}
		code, err := strconv.ParseUint(r.src[r.pos:r.pos+digits], 16, 32)
		if err != nil {
			return 0, r.errorf(r.pos0(), "invalid escape sequence \\%c", ch)
		}
		for i := 0; i < digits; i++ {
			r.advance()
		}
		return rune(code), nil
	default:
		return 0, r.errorf(r.pos0(), "invalid escape sequence \\%c", ch)
	}
}

// readAtom reads a symbol or numeric/boolean/null literal. A symbol may end
// in '#' (auto-gensym marker, meaningless to the reader per spec.md §4.1)
// without further special handling here.
func (r *Reader) readAtom(start diag.Position) (*ast.Node, error) {
	var sb strings.Builder
	for {
		ch, size := r.peekRune()
		if size == 0 || isDelimiter(ch) {
			break
		}
		sb.WriteRune(r.advance())
	}
	text := sb.String()
	switch text {
	case "true":
		return ast.Bool(true, metaFrom(start)), nil
	case "false":
		return ast.Bool(false, metaFrom(start)), nil
	case "null", "nil":
		return ast.Null(metaFrom(start)), nil
	}

	if n, ok := parseNumber(text); ok {
		return ast.Num(n, metaFrom(start)), nil
	}

	return ast.Sym(text, metaFrom(start)), nil
}

func isDelimiter(ch rune) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '(', ')', '[', ']', '{', '}', '"', '\'', '`', ';', ',':
		return true
	default:
		return false
	}
}

func parseNumber(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	first := text[0]
	if !(first >= '0' && first <= '9') && !((first == '-' || first == '+') && len(text) > 1) {
		return 0, false
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
