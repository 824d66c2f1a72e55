package units

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type parser struct {
	reg   *Registry
	input string
	pos   int
}

// parse reads: expr := term (op term)*, op := '*' | '·' | '/' | juxtaposition.
func (p *parser) parse() (Unit, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return Unit{Factor: 1, Dims: Dimensions{}, scale: 1}, nil
	}
	u, err := p.expr()
	if err != nil {
		return Unit{}, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return Unit{}, p.errorf("unexpected %q", p.input[p.pos:])
	}
	return u, nil
}

func (p *parser) expr() (Unit, error) {
	u, err := p.term()
	if err != nil {
		return Unit{}, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return u, nil
		}
		sign := 1
		switch {
		case p.consume("**"):
			return Unit{}, p.errorf("unexpected exponent")
		case p.consume("*"), p.consume("·"):
		case p.consume("/"):
			sign = -1
		case p.atAtomStart():
		default:
			return u, nil
		}
		next, err := p.term()
		if err != nil {
			return Unit{}, err
		}
		u = u.mul(next, sign)
	}
}

func (p *parser) term() (Unit, error) {
	u, err := p.atom()
	if err != nil {
		return Unit{}, err
	}
	p.skipSpace()
	if p.consume("**") || p.consume("^") {
		p.skipSpace()
		n, err := p.integer()
		if err != nil {
			return Unit{}, err
		}
		u = u.pow(n)
	}
	return u, nil
}

func (p *parser) atom() (Unit, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return Unit{}, p.errorf("unexpected end of expression")
	}
	if p.consume("(") {
		u, err := p.expr()
		if err != nil {
			return Unit{}, err
		}
		p.skipSpace()
		if !p.consume(")") {
			return Unit{}, p.errorf("missing ')'")
		}
		return u, nil
	}
	r := p.peek()
	if unicode.IsDigit(r) || r == '.' {
		v, err := p.number()
		if err != nil {
			return Unit{}, err
		}
		return Unit{Factor: v, Dims: Dimensions{}, scale: v}, nil
	}
	if isIdentStart(r) {
		ident := p.ident()
		u, ok := p.reg.lookup(ident)
		if !ok {
			return Unit{}, p.errorf("undefined unit %q", ident)
		}
		return u, nil
	}
	return Unit{}, p.errorf("unexpected %q", string(r))
}

func (p *parser) number() (float64, error) {
	start := p.pos
scan:
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case isDigitByte(c), c == '.':
			p.pos++
		case (c == 'e' || c == 'E') && p.pos+1 < len(p.input) &&
			(isDigitByte(p.input[p.pos+1]) || p.input[p.pos+1] == '-' || p.input[p.pos+1] == '+'):
			p.pos += 2
		default:
			break scan
		}
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, p.errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}

func (p *parser) integer() (int, error) {
	start := p.pos
	if p.pos < len(p.input) && (p.input[p.pos] == '-' || p.input[p.pos] == '+') {
		p.pos++
	}
	for p.pos < len(p.input) && isDigitByte(p.input[p.pos]) {
		p.pos++
	}
	n, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil {
		return 0, p.errorf("invalid exponent %q", p.input[start:p.pos])
	}
	return n, nil
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.input) {
		r := p.peek()
		if !isIdentRune(r) {
			break
		}
		p.pos += len(string(r))
	}
	return p.input[start:p.pos]
}

func (p *parser) atAtomStart() bool {
	if p.pos >= len(p.input) {
		return false
	}
	r := p.peek()
	return r == '(' || isIdentStart(r) || unicode.IsDigit(r)
}

func (p *parser) peek() rune {
	for _, r := range p.input[p.pos:] {
		return r
	}
	return 0
}

func (p *parser) consume(tok string) bool {
	if strings.HasPrefix(p.input[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.peek()) {
		p.pos += len(string(p.peek()))
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &DefinitionError{Input: p.input, Message: fmt.Sprintf(format, args...)}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}
