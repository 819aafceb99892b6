package sparql

import (
	"fmt"
	"strings"

	"github.com/zkrdf/zksparql/rdf"
)

// Parser parses query text into the algebra subset.
type Parser struct {
	lexer    *Lexer
	cur      Token
	peek     Token
	prefixes map[string]string
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input), prefixes: make(map[string]string)}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a SELECT query.
func Parse(input string) (*Query, error) {
	p := NewParser(input)
	root, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	return &Query{Text: input, Prefixes: p.prefixes, Root: root}, nil
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) expect(t TokenType) error {
	if p.cur.Type != t {
		return fmt.Errorf("sparql: expected %v, got %v %q at position %d", t, p.cur.Type, p.cur.Literal, p.cur.Pos)
	}
	return nil
}

func (p *Parser) curKeyword() string {
	if p.cur.Type != TokenIdent {
		return ""
	}
	return strings.ToUpper(p.cur.Literal)
}

func (p *Parser) parseQuery() (*Project, error) {
	for p.curKeyword() == "PREFIX" {
		if err := p.parsePrefix(); err != nil {
			return nil, err
		}
	}

	switch p.curKeyword() {
	case "SELECT":
		// supported
	case "ASK", "CONSTRUCT", "DESCRIBE":
		return nil, unsupportedf("%s queries", p.curKeyword())
	default:
		return nil, fmt.Errorf("sparql: expected SELECT, got %q at position %d", p.cur.Literal, p.cur.Pos)
	}
	p.nextToken()

	switch p.curKeyword() {
	case "DISTINCT", "REDUCED":
		return nil, unsupportedf("SELECT %s", p.curKeyword())
	}

	var vars []string
	for p.cur.Type == TokenVar {
		vars = append(vars, p.cur.Literal)
		p.nextToken()
	}
	if len(vars) == 0 {
		return nil, unsupportedf("projection %q (explicit variable list required)", p.cur.Literal)
	}

	if p.curKeyword() != "WHERE" {
		return nil, fmt.Errorf("sparql: expected WHERE, got %q at position %d", p.cur.Literal, p.cur.Pos)
	}
	p.nextToken()

	op, err := p.parseGroup()
	if err != nil {
		return nil, err
	}

	switch p.curKeyword() {
	case "ORDER", "GROUP", "LIMIT", "OFFSET", "HAVING", "VALUES":
		return nil, unsupportedf("%s clause", p.curKeyword())
	}
	if p.cur.Type != TokenEOF {
		return nil, fmt.Errorf("sparql: trailing input %q at position %d", p.cur.Literal, p.cur.Pos)
	}

	return &Project{Variables: vars, Op: op}, nil
}

func (p *Parser) parsePrefix() error {
	p.nextToken() // consume PREFIX
	if err := p.expect(TokenPName); err != nil {
		return fmt.Errorf("sparql: prefix declaration: %w", err)
	}
	name := p.cur.Literal[:strings.Index(p.cur.Literal, ":")]
	p.nextToken()
	if err := p.expect(TokenIRI); err != nil {
		return fmt.Errorf("sparql: prefix declaration: %w", err)
	}
	p.prefixes[name] = p.cur.Literal
	p.nextToken()
	return nil
}

// parseGroup parses { ... } into a BGP wrapped by Extend and Filter nodes.
func (p *Parser) parseGroup() (Operator, error) {
	if err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	p.nextToken()

	var patterns []TriplePattern
	var filters []Expr
	var extends []*Extend

	for p.cur.Type != TokenRBrace && p.cur.Type != TokenEOF {
		switch p.curKeyword() {
		case "FILTER":
			expr, err := p.parseFilter()
			if err != nil {
				return nil, err
			}
			filters = append(filters, expr)
		case "BIND":
			ext, err := p.parseBind()
			if err != nil {
				return nil, err
			}
			extends = append(extends, ext)
		case "OPTIONAL", "UNION", "GRAPH", "MINUS", "SERVICE", "SELECT":
			return nil, unsupportedf("%s inside group pattern", p.curKeyword())
		default:
			if p.cur.Type == TokenLBrace {
				return nil, unsupportedf("nested group pattern")
			}
			block, err := p.parseTriplesBlock()
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, block...)
		}
	}
	if err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	p.nextToken()

	var op Operator = &BGP{Patterns: patterns}
	// Binds apply in source order, innermost first.
	for _, ext := range extends {
		ext.Op = op
		op = ext
	}
	for _, f := range filters {
		op = &Filter{Expr: f, Op: op}
	}
	return op, nil
}

func (p *Parser) parseFilter() (Expr, error) {
	p.nextToken() // consume FILTER
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	p.nextToken()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	p.nextToken()
	return expr, nil
}

func (p *Parser) parseBind() (*Extend, error) {
	p.nextToken() // consume BIND
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	p.nextToken()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.curKeyword() != "AS" {
		return nil, fmt.Errorf("sparql: expected AS in BIND, got %q at position %d", p.cur.Literal, p.cur.Pos)
	}
	p.nextToken()
	if err := p.expect(TokenVar); err != nil {
		return nil, err
	}
	name := p.cur.Literal
	p.nextToken()
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	p.nextToken()
	return &Extend{Var: name, Expr: expr}, nil
}

// parseTriplesBlock parses one subject with its predicate-object lists.
func (p *Parser) parseTriplesBlock() ([]TriplePattern, error) {
	subject, err := p.parseTerm(false)
	if err != nil {
		return nil, fmt.Errorf("sparql: subject: %w", err)
	}

	var patterns []TriplePattern
	for {
		predicate, path, err := p.parseVerb()
		if err != nil {
			return nil, err
		}
		for {
			object, err := p.parseTerm(true)
			if err != nil {
				return nil, fmt.Errorf("sparql: object: %w", err)
			}
			patterns = append(patterns, TriplePattern{
				Subject:   subject,
				Predicate: predicate,
				Object:    object,
				Path:      path,
			})
			if p.cur.Type != TokenComma {
				break
			}
			p.nextToken()
		}
		if p.cur.Type != TokenSemicolon {
			break
		}
		p.nextToken()
		if p.cur.Type == TokenDot || p.cur.Type == TokenRBrace {
			break
		}
	}

	if p.cur.Type == TokenDot {
		p.nextToken()
	}
	return patterns, nil
}

func (p *Parser) parseVerb() (rdf.Term, PathKind, error) {
	var predicate rdf.Term
	switch {
	case p.cur.Type == TokenIRI:
		predicate = rdf.NewNamedNode(p.cur.Literal)
		p.nextToken()
	case p.cur.Type == TokenPName:
		iri, err := p.resolvePName(p.cur.Literal)
		if err != nil {
			return rdf.Term{}, PathLink, err
		}
		predicate = rdf.NewNamedNode(iri)
		p.nextToken()
	case p.cur.Type == TokenIdent && p.cur.Literal == "a":
		predicate = rdf.NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
		p.nextToken()
	case p.cur.Type == TokenVar:
		return rdf.Term{}, PathLink, unsupportedf("variable predicate ?%s", p.cur.Literal)
	default:
		return rdf.Term{}, PathLink, fmt.Errorf("sparql: expected predicate, got %v %q at position %d", p.cur.Type, p.cur.Literal, p.cur.Pos)
	}

	path := PathLink
	if p.cur.Type == TokenQuestion {
		path = PathZeroOrOne
		p.nextToken()
	}
	return predicate, path, nil
}

// parseTerm parses a subject or object position term.
func (p *Parser) parseTerm(allowLiteral bool) (rdf.Term, error) {
	switch p.cur.Type {
	case TokenIRI:
		t := rdf.NewNamedNode(p.cur.Literal)
		p.nextToken()
		return t, nil
	case TokenPName:
		iri, err := p.resolvePName(p.cur.Literal)
		if err != nil {
			return rdf.Term{}, err
		}
		p.nextToken()
		return rdf.NewNamedNode(iri), nil
	case TokenVar:
		t := rdf.NewVariable(p.cur.Literal)
		p.nextToken()
		return t, nil
	case TokenString:
		if !allowLiteral {
			return rdf.Term{}, fmt.Errorf("literal not allowed in this position at %d", p.cur.Pos)
		}
		return p.parseLiteral()
	case TokenInteger:
		if !allowLiteral {
			return rdf.Term{}, fmt.Errorf("literal not allowed in this position at %d", p.cur.Pos)
		}
		t := rdf.NewTypedLiteral(p.cur.Literal, rdf.XSDInteger)
		p.nextToken()
		return t, nil
	case TokenIdent:
		switch p.cur.Literal {
		case "true", "false":
			t := rdf.NewTypedLiteral(p.cur.Literal, rdf.XSDBoolean)
			p.nextToken()
			return t, nil
		}
		return rdf.Term{}, fmt.Errorf("unexpected identifier %q at position %d", p.cur.Literal, p.cur.Pos)
	default:
		return rdf.Term{}, fmt.Errorf("unexpected %v %q at position %d", p.cur.Type, p.cur.Literal, p.cur.Pos)
	}
}

func (p *Parser) parseLiteral() (rdf.Term, error) {
	value := p.cur.Literal
	p.nextToken()
	switch p.cur.Type {
	case TokenLangTag:
		lang := p.cur.Literal
		p.nextToken()
		return rdf.NewLangLiteral(value, lang), nil
	case TokenDatatype:
		p.nextToken()
		switch p.cur.Type {
		case TokenIRI:
			dt := p.cur.Literal
			p.nextToken()
			return rdf.NewTypedLiteral(value, dt), nil
		case TokenPName:
			iri, err := p.resolvePName(p.cur.Literal)
			if err != nil {
				return rdf.Term{}, err
			}
			p.nextToken()
			return rdf.NewTypedLiteral(value, iri), nil
		default:
			return rdf.Term{}, fmt.Errorf("expected datatype IRI at position %d", p.cur.Pos)
		}
	default:
		return rdf.NewLiteral(value), nil
	}
}

func (p *Parser) resolvePName(pname string) (string, error) {
	idx := strings.Index(pname, ":")
	prefix, local := pname[:idx], pname[idx+1:]
	base, ok := p.prefixes[prefix]
	if !ok {
		return "", fmt.Errorf("sparql: undeclared prefix %q", prefix)
	}
	return base + local, nil
}

// Expression parsing: || then && then comparison then unary.

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenOrOr {
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &OrExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenAndAnd {
		p.nextToken()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	switch p.cur.Type {
	case TokenEq, TokenNeq, TokenGte:
		op := p.cur.Literal
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &CompareExpr{Op: op, Left: left, Right: right}, nil
	default:
		return left, nil
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.cur.Type == TokenBang {
		p.nextToken()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch p.cur.Type {
	case TokenLParen:
		p.nextToken()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		p.nextToken()
		return expr, nil
	case TokenVar:
		t := rdf.NewVariable(p.cur.Literal)
		p.nextToken()
		return &TermExpr{Term: t}, nil
	case TokenIRI, TokenPName, TokenString, TokenInteger:
		term, err := p.parseTerm(true)
		if err != nil {
			return nil, err
		}
		return &TermExpr{Term: term}, nil
	case TokenIdent:
		return p.parseCallOrKeywordTerm()
	default:
		return nil, fmt.Errorf("sparql: unexpected %v %q in expression at position %d", p.cur.Type, p.cur.Literal, p.cur.Pos)
	}
}

func (p *Parser) parseCallOrKeywordTerm() (Expr, error) {
	name := p.cur.Literal
	lower := strings.ToLower(name)

	if lower == "true" || lower == "false" {
		t := rdf.NewTypedLiteral(lower, rdf.XSDBoolean)
		p.nextToken()
		return &TermExpr{Term: t}, nil
	}

	p.nextToken()
	if err := p.expect(TokenLParen); err != nil {
		return nil, fmt.Errorf("sparql: expected call arguments for %q: %w", name, err)
	}
	p.nextToken()
	arg, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	p.nextToken()

	switch lower {
	case "isiri", "isuri":
		return &CallExpr{Func: "isiri", Arg: arg}, nil
	case "isblank":
		return &CallExpr{Func: "isblank", Arg: arg}, nil
	case "isliteral":
		return &CallExpr{Func: "isliteral", Arg: arg}, nil
	case "lang":
		return &CallExpr{Func: "lang", Arg: arg}, nil
	default:
		return nil, unsupportedf("function %s", name)
	}
}
