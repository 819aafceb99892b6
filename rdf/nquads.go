package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DecodeNQuads reads an N-Quads document and returns its quads in input
// order. The input is expected to be canonical already; this decoder does
// no normalization beyond unescaping.
func DecodeNQuads(r io.Reader) ([]Quad, error) {
	var quads []Quad
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q, err := parseQuadLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		quads = append(quads, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return quads, nil
}

// EncodeNQuads writes quads as N-Quads lines.
func EncodeNQuads(w io.Writer, quads []Quad) error {
	for _, q := range quads {
		var sb strings.Builder
		sb.WriteString(serializeTerm(q.Subject))
		sb.WriteByte(' ')
		sb.WriteString(serializeTerm(q.Predicate))
		sb.WriteByte(' ')
		sb.WriteString(serializeTerm(q.Object))
		sb.WriteByte(' ')
		if q.Graph.Kind != KindDefaultGraph {
			sb.WriteString(serializeTerm(q.Graph))
			sb.WriteByte(' ')
		}
		sb.WriteString(".\n")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func serializeTerm(t Term) string {
	switch t.Kind {
	case KindNamedNode:
		return "<" + t.Value + ">"
	case KindBlankNode:
		return "_:" + t.Value
	case KindLiteral:
		s := quoteLiteral(t.Value)
		if t.Language != "" {
			return s + "@" + t.Language
		}
		if t.Datatype != "" && t.Datatype != XSDString {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return t.String()
	}
}

// quoteLiteral escapes a literal value with the N-Quads escape set.
// Non-ASCII passes through as UTF-8; remaining control characters use
// \uXXXX form.
func quoteLiteral(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// lineLexer walks a single N-Quads statement byte by byte.
type lineLexer struct {
	input string
	pos   int
}

func parseQuadLine(line string) (Quad, error) {
	l := &lineLexer{input: line}

	subj, err := l.readTerm(false)
	if err != nil {
		return Quad{}, fmt.Errorf("subject: %w", err)
	}
	pred, err := l.readTerm(false)
	if err != nil {
		return Quad{}, fmt.Errorf("predicate: %w", err)
	}
	if pred.Kind != KindNamedNode {
		return Quad{}, fmt.Errorf("predicate must be an IRI, got %s", pred.Kind)
	}
	obj, err := l.readTerm(true)
	if err != nil {
		return Quad{}, fmt.Errorf("object: %w", err)
	}

	graph := DefaultGraph()
	l.skipSpace()
	if l.peek() != '.' {
		graph, err = l.readTerm(false)
		if err != nil {
			return Quad{}, fmt.Errorf("graph: %w", err)
		}
	}

	l.skipSpace()
	if l.peek() != '.' {
		return Quad{}, fmt.Errorf("expected terminating '.' at offset %d", l.pos)
	}
	return Quad{Subject: subj, Predicate: pred, Object: obj, Graph: graph}, nil
}

func (l *lineLexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lineLexer) skipSpace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

func (l *lineLexer) readTerm(allowLiteral bool) (Term, error) {
	l.skipSpace()
	switch l.peek() {
	case '<':
		iri, err := l.readDelimited('<', '>')
		if err != nil {
			return Term{}, err
		}
		return NewNamedNode(iri), nil
	case '_':
		return l.readBlank()
	case '"':
		if !allowLiteral {
			return Term{}, fmt.Errorf("literal not allowed at offset %d", l.pos)
		}
		return l.readLiteral()
	case 0:
		return Term{}, fmt.Errorf("unexpected end of statement")
	default:
		return Term{}, fmt.Errorf("unexpected character %q at offset %d", l.peek(), l.pos)
	}
}

func (l *lineLexer) readDelimited(open, close byte) (string, error) {
	if l.peek() != open {
		return "", fmt.Errorf("expected %q at offset %d", open, l.pos)
	}
	l.pos++
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != close {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return "", fmt.Errorf("unterminated %c...%c", open, close)
	}
	s := l.input[start:l.pos]
	l.pos++
	return s, nil
}

func (l *lineLexer) readBlank() (Term, error) {
	if l.pos+1 >= len(l.input) || l.input[l.pos+1] != ':' {
		return Term{}, fmt.Errorf("malformed blank node at offset %d", l.pos)
	}
	l.pos += 2
	start := l.pos
	for l.pos < len(l.input) && !isTermBoundary(l.input[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return Term{}, fmt.Errorf("empty blank node label at offset %d", l.pos)
	}
	return NewBlankNode(l.input[start:l.pos]), nil
}

func (l *lineLexer) readLiteral() (Term, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		c := l.input[l.pos]
		if c == '\\' {
			esc, n, err := unescapeAt(l.input, l.pos)
			if err != nil {
				return Term{}, err
			}
			sb.WriteString(esc)
			l.pos += n
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Term{}, fmt.Errorf("unterminated string literal")
	}
	l.pos++ // closing quote
	value := sb.String()

	switch l.peek() {
	case '@':
		l.pos++
		start := l.pos
		for l.pos < len(l.input) && !isTermBoundary(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == start {
			return Term{}, fmt.Errorf("empty language tag")
		}
		return NewLangLiteral(value, l.input[start:l.pos]), nil
	case '^':
		if l.pos+1 >= len(l.input) || l.input[l.pos+1] != '^' {
			return Term{}, fmt.Errorf("malformed datatype marker at offset %d", l.pos)
		}
		l.pos += 2
		dt, err := l.readDelimited('<', '>')
		if err != nil {
			return Term{}, err
		}
		return NewTypedLiteral(value, dt), nil
	default:
		return NewLiteral(value), nil
	}
}

func unescapeAt(s string, pos int) (string, int, error) {
	if pos+1 >= len(s) {
		return "", 0, fmt.Errorf("dangling escape at offset %d", pos)
	}
	switch s[pos+1] {
	case 't':
		return "\t", 2, nil
	case 'n':
		return "\n", 2, nil
	case 'r':
		return "\r", 2, nil
	case '"':
		return "\"", 2, nil
	case '\\':
		return "\\", 2, nil
	case 'u':
		if pos+6 > len(s) {
			return "", 0, fmt.Errorf("truncated \\u escape at offset %d", pos)
		}
		v, err := strconv.ParseUint(s[pos+2:pos+6], 16, 32)
		if err != nil {
			return "", 0, fmt.Errorf("bad \\u escape at offset %d: %w", pos, err)
		}
		return string(rune(v)), 6, nil
	case 'U':
		if pos+10 > len(s) {
			return "", 0, fmt.Errorf("truncated \\U escape at offset %d", pos)
		}
		v, err := strconv.ParseUint(s[pos+2:pos+10], 16, 32)
		if err != nil {
			return "", 0, fmt.Errorf("bad \\U escape at offset %d: %w", pos, err)
		}
		return string(rune(v)), 10, nil
	default:
		return "", 0, fmt.Errorf("unknown escape \\%c at offset %d", s[pos+1], pos)
	}
}

func isTermBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '.'
}
