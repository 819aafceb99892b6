package sparql

import "fmt"

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIRI       // <...>
	TokenVar       // ?name
	TokenIdent     // SELECT, WHERE, bare identifiers, true/false
	TokenPName     // prefix:local
	TokenString    // "..."
	TokenLangTag   // @en (follows a string)
	TokenDatatype  // ^^ (follows a string)
	TokenInteger   // 123, -45
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLParen    // (
	TokenRParen    // )
	TokenDot       // .
	TokenSemicolon // ;
	TokenComma     // ,
	TokenQuestion  // bare ? (zero-or-one path modifier)
	TokenAndAnd    // &&
	TokenOrOr      // ||
	TokenBang      // !
	TokenEq        // =
	TokenNeq       // !=
	TokenGte       // >=
	TokenIllegal
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIRI:
		return "IRI"
	case TokenVar:
		return "variable"
	case TokenIdent:
		return "identifier"
	case TokenPName:
		return "prefixed name"
	case TokenString:
		return "string"
	case TokenLangTag:
		return "language tag"
	case TokenDatatype:
		return "^^"
	case TokenInteger:
		return "integer"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenDot:
		return "."
	case TokenSemicolon:
		return ";"
	case TokenComma:
		return ","
	case TokenQuestion:
		return "?"
	case TokenAndAnd:
		return "&&"
	case TokenOrOr:
		return "||"
	case TokenBang:
		return "!"
	case TokenEq:
		return "="
	case TokenNeq:
		return "!="
	case TokenGte:
		return ">="
	default:
		return "illegal"
	}
}

// Token is a single lexer token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%v, %q, %d}", t.Type, t.Literal, t.Pos)
}

// Lexer tokenizes query text.
type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipComment() {
	for l.ch != 0 && l.ch != '\n' {
		l.readChar()
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()
		if l.ch == '#' {
			l.skipComment()
			continue
		}
		break
	}

	pos := l.pos
	switch l.ch {
	case 0:
		return Token{Type: TokenEOF, Pos: pos}
	case '{':
		l.readChar()
		return Token{Type: TokenLBrace, Literal: "{", Pos: pos}
	case '}':
		l.readChar()
		return Token{Type: TokenRBrace, Literal: "}", Pos: pos}
	case '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}
	case ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}
	case '.':
		l.readChar()
		return Token{Type: TokenDot, Literal: ".", Pos: pos}
	case ';':
		l.readChar()
		return Token{Type: TokenSemicolon, Literal: ";", Pos: pos}
	case ',':
		l.readChar()
		return Token{Type: TokenComma, Literal: ",", Pos: pos}
	case '<':
		return l.readIRI(pos)
	case '"':
		return l.readString(pos)
	case '@':
		return l.readLangTag(pos)
	case '^':
		if l.peekChar() == '^' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenDatatype, Literal: "^^", Pos: pos}
		}
		l.readChar()
		return Token{Type: TokenIllegal, Literal: "^", Pos: pos}
	case '?':
		if isNameStart(l.peekChar()) {
			l.readChar()
			return Token{Type: TokenVar, Literal: l.readName(), Pos: pos}
		}
		l.readChar()
		return Token{Type: TokenQuestion, Literal: "?", Pos: pos}
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenAndAnd, Literal: "&&", Pos: pos}
		}
		l.readChar()
		return Token{Type: TokenIllegal, Literal: "&", Pos: pos}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenOrOr, Literal: "||", Pos: pos}
		}
		l.readChar()
		return Token{Type: TokenIllegal, Literal: "|", Pos: pos}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenNeq, Literal: "!=", Pos: pos}
		}
		l.readChar()
		return Token{Type: TokenBang, Literal: "!", Pos: pos}
	case '=':
		l.readChar()
		return Token{Type: TokenEq, Literal: "=", Pos: pos}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenGte, Literal: ">=", Pos: pos}
		}
		l.readChar()
		return Token{Type: TokenIllegal, Literal: ">", Pos: pos}
	case '-':
		if isDigit(l.peekChar()) {
			l.readChar()
			return Token{Type: TokenInteger, Literal: "-" + l.readNumber(), Pos: pos}
		}
		l.readChar()
		return Token{Type: TokenIllegal, Literal: "-", Pos: pos}
	default:
		if isDigit(l.ch) {
			return Token{Type: TokenInteger, Literal: l.readNumber(), Pos: pos}
		}
		if isNameStart(l.ch) {
			name := l.readName()
			if l.ch == ':' {
				l.readChar()
				local := ""
				if isNameStart(l.ch) || isDigit(l.ch) {
					local = l.readName()
				}
				return Token{Type: TokenPName, Literal: name + ":" + local, Pos: pos}
			}
			return Token{Type: TokenIdent, Literal: name, Pos: pos}
		}
		if l.ch == ':' {
			// Default prefix ":local".
			l.readChar()
			local := ""
			if isNameStart(l.ch) || isDigit(l.ch) {
				local = l.readName()
			}
			return Token{Type: TokenPName, Literal: ":" + local, Pos: pos}
		}
		ch := l.ch
		l.readChar()
		return Token{Type: TokenIllegal, Literal: string(ch), Pos: pos}
	}
}

func (l *Lexer) readIRI(pos int) Token {
	l.readChar() // consume '<'
	start := l.pos
	for l.ch != 0 && l.ch != '>' {
		l.readChar()
	}
	if l.ch == 0 {
		return Token{Type: TokenIllegal, Literal: "unterminated IRI", Pos: pos}
	}
	iri := l.input[start:l.pos]
	l.readChar() // consume '>'
	return Token{Type: TokenIRI, Literal: iri, Pos: pos}
}

func (l *Lexer) readString(pos int) Token {
	l.readChar() // consume opening quote
	var out []byte
	for l.ch != 0 && l.ch != '"' {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				return Token{Type: TokenIllegal, Literal: "bad escape", Pos: pos}
			}
			l.readChar()
			continue
		}
		out = append(out, l.ch)
		l.readChar()
	}
	if l.ch == 0 {
		return Token{Type: TokenIllegal, Literal: "unterminated string", Pos: pos}
	}
	l.readChar() // consume closing quote
	return Token{Type: TokenString, Literal: string(out), Pos: pos}
}

func (l *Lexer) readLangTag(pos int) Token {
	l.readChar() // consume '@'
	start := l.pos
	for isLetter(l.ch) || l.ch == '-' {
		l.readChar()
	}
	if l.pos == start {
		return Token{Type: TokenIllegal, Literal: "empty language tag", Pos: pos}
	}
	return Token{Type: TokenLangTag, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) readName() string {
	start := l.pos
	for isNameStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isNameStart(c byte) bool {
	return isLetter(c) || c == '_'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
