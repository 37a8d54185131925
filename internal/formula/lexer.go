package formula

import (
	"strings"
)

// TokenType enumerates the lexical categories, grounded on the teacher's
// TokenType (lexer.go), narrowed to what this grammar needs and extended
// with a dedicated CellRef category so the parser doesn't have to
// re-parse identifier text to notice a `$`.
type TokenType int

const (
	tokEOF TokenType = iota
	tokNumber
	tokString
	tokIdent
	tokCellRef
	tokComma
	tokColon
	tokLParen
	tokRParen
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokAmp
	tokPercent
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
)

// token is a single lexical unit with its source text and byte offset,
// mirroring the teacher's Token (lexer.go).
type token struct {
	typ TokenType
	lit string
	pos int
}

// lexer turns formula text into a token stream. Grounded on the teacher's
// Lexer (lexer.go) shape (a struct walking a rune slice by index with
// current()/peek()/advance() helpers) but considerably smaller, since this
// grammar has no worksheet-qualified references or named ranges.
type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) current() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peek(offset int) rune {
	p := l.pos + offset
	if p >= len(l.src) {
		return 0
	}
	return l.src[p]
}

func (l *lexer) advance() rune {
	r := l.current()
	l.pos++
	return r
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' }

func (l *lexer) skipSpace() {
	for l.current() == ' ' || l.current() == '\t' || l.current() == '\n' || l.current() == '\r' {
		l.advance()
	}
}

// tokenize returns the full token stream, terminated by a tokEOF entry.
func (l *lexer) tokenize() ([]token, error) {
	var out []token
	for {
		l.skipSpace()
		start := l.pos
		c := l.current()
		if c == 0 {
			out = append(out, token{typ: tokEOF, pos: start})
			return out, nil
		}
		switch {
		case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
			out = append(out, l.scanNumber())
		case c == '"':
			t, err := l.scanString()
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		case c == '$' || isAlpha(c):
			out = append(out, l.scanIdentOrRef())
		case c == '(':
			l.advance()
			out = append(out, token{typ: tokLParen, lit: "(", pos: start})
		case c == ')':
			l.advance()
			out = append(out, token{typ: tokRParen, lit: ")", pos: start})
		case c == ',':
			l.advance()
			out = append(out, token{typ: tokComma, lit: ",", pos: start})
		case c == ':':
			l.advance()
			out = append(out, token{typ: tokColon, lit: ":", pos: start})
		case c == '+':
			l.advance()
			out = append(out, token{typ: tokPlus, lit: "+", pos: start})
		case c == '-':
			l.advance()
			out = append(out, token{typ: tokMinus, lit: "-", pos: start})
		case c == '*':
			l.advance()
			out = append(out, token{typ: tokStar, lit: "*", pos: start})
		case c == '/':
			l.advance()
			out = append(out, token{typ: tokSlash, lit: "/", pos: start})
		case c == '^':
			l.advance()
			out = append(out, token{typ: tokCaret, lit: "^", pos: start})
		case c == '&':
			l.advance()
			out = append(out, token{typ: tokAmp, lit: "&", pos: start})
		case c == '%':
			l.advance()
			out = append(out, token{typ: tokPercent, lit: "%", pos: start})
		case c == '=':
			l.advance()
			out = append(out, token{typ: tokEq, lit: "=", pos: start})
		case c == '<':
			l.advance()
			if l.current() == '>' {
				l.advance()
				out = append(out, token{typ: tokNe, lit: "<>", pos: start})
			} else if l.current() == '=' {
				l.advance()
				out = append(out, token{typ: tokLe, lit: "<=", pos: start})
			} else {
				out = append(out, token{typ: tokLt, lit: "<", pos: start})
			}
		case c == '>':
			l.advance()
			if l.current() == '=' {
				l.advance()
				out = append(out, token{typ: tokGe, lit: ">=", pos: start})
			} else {
				out = append(out, token{typ: tokGt, lit: ">", pos: start})
			}
		default:
			return nil, &ParseError{Pos: start, Msg: "unexpected character '" + string(c) + "'"}
		}
	}
}

func (l *lexer) scanNumber() token {
	start := l.pos
	for isDigit(l.current()) {
		l.advance()
	}
	if l.current() == '.' && isDigit(l.peek(1)) {
		l.advance()
		for isDigit(l.current()) {
			l.advance()
		}
	}
	if l.current() == 'e' || l.current() == 'E' {
		save := l.pos
		l.advance()
		if l.current() == '+' || l.current() == '-' {
			l.advance()
		}
		if isDigit(l.current()) {
			for isDigit(l.current()) {
				l.advance()
			}
		} else {
			l.pos = save
		}
	}
	return token{typ: tokNumber, lit: string(l.src[start:l.pos]), pos: start}
}

func (l *lexer) scanString() (token, error) {
	start := l.pos
	l.advance() // opening quote
	var b strings.Builder
	for {
		c := l.current()
		if c == 0 {
			return token{}, &ParseError{Pos: start, Msg: "unterminated string literal"}
		}
		if c == '"' {
			l.advance()
			if l.current() == '"' {
				b.WriteRune('"')
				l.advance()
				continue
			}
			break
		}
		b.WriteRune(c)
		l.advance()
	}
	return token{typ: tokString, lit: b.String(), pos: start}, nil
}

// scanIdentOrRef consumes an identifier or a cell reference. A cell
// reference matches `$?[A-Za-z]+$?[0-9]+` with nothing else appended
// (so "A1B2" is not mistaken for a ref, and function names that happen to
// start with a letter run like "AND" fall through to tokIdent).
func (l *lexer) scanIdentOrRef() token {
	start := l.pos
	for l.current() == '$' || isAlpha(l.current()) || isDigit(l.current()) {
		l.advance()
	}
	text := string(l.src[start:l.pos])
	if looksLikeCellRef(text) {
		return token{typ: tokCellRef, lit: text, pos: start}
	}
	return token{typ: tokIdent, lit: text, pos: start}
}

// looksLikeCellRef reports whether text has the shape of an A1-style
// reference: optional `$`, one or more letters, optional `$`, one or more
// digits, nothing else.
func looksLikeCellRef(text string) bool {
	i := 0
	if i < len(text) && text[i] == '$' {
		i++
	}
	letterStart := i
	for i < len(text) && isAlpha(rune(text[i])) {
		i++
	}
	if i == letterStart {
		return false
	}
	if i < len(text) && text[i] == '$' {
		i++
	}
	digitStart := i
	for i < len(text) && isDigit(rune(text[i])) {
		i++
	}
	return i == len(text) && i > digitStart
}
