package ldap

import (
	"strings"
)

// ParseFilterString parses an RFC 4515 textual filter. A bare expression
// (not wrapped in parens) is auto-wrapped once before parsing, matching
// the common client convenience of accepting e.g. `cn=foo` directly.
func ParseFilterString(s string) (Filter, error) {
	if !strings.HasPrefix(s, "(") {
		s = "(" + s + ")"
	}
	p := &textFilterParser{input: s}
	f, err := p.parseFilter()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, newError(KindInvalidInput, "unexpected trailing data in filter %q at position %d", s, p.pos)
	}
	return f, nil
}

type textFilterParser struct {
	input string
	pos   int
}

func (p *textFilterParser) parseFilter() (Filter, error) {
	if p.pos >= len(p.input) || p.input[p.pos] != '(' {
		return nil, newError(KindInvalidInput, "expected '(' at position %d", p.pos)
	}
	p.pos++ // consume '('

	if p.pos >= len(p.input) {
		return nil, newError(KindInvalidInput, "unexpected end of filter")
	}

	var f Filter
	var err error
	switch p.input[p.pos] {
	case '&':
		p.pos++
		f, err = p.parseSet(func(children []Filter) Filter { return &FilterAnd{Children: children} })
	case '|':
		p.pos++
		f, err = p.parseSet(func(children []Filter) Filter { return &FilterOr{Children: children} })
	case '!':
		p.pos++
		var child Filter
		child, err = p.parseFilter()
		if err == nil {
			f = &FilterNot{Child: child}
		}
	default:
		f, err = p.parseSimple()
	}
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.input) || p.input[p.pos] != ')' {
		return nil, newError(KindInvalidInput, "expected ')' at position %d", p.pos)
	}
	p.pos++ // consume ')'
	return f, nil
}

func (p *textFilterParser) parseSet(build func([]Filter) Filter) (Filter, error) {
	var children []Filter
	for p.pos < len(p.input) && p.input[p.pos] == '(' {
		child, err := p.parseFilter()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return build(children), nil
}

// parseSimple parses one attribute expression: `attr OP value`, where OP
// is one of `=*`, `=`, `>=`, `<=`, `~=`, or `:` (extensible match).
func (p *textFilterParser) parseSimple() (Filter, error) {
	start := p.pos
	for p.pos < len(p.input) && isAttrChar(p.input[p.pos]) {
		p.pos++
	}
	attr := p.input[start:p.pos]

	if p.pos < len(p.input) && (p.input[p.pos] == ':' || (attr == "" && p.pos < len(p.input))) {
		if p.input[p.pos] == ':' {
			return p.parseExtensible(attr)
		}
	}

	if p.pos+1 < len(p.input) && p.input[p.pos] == '>' && p.input[p.pos+1] == '=' {
		p.pos += 2
		value, err := p.parseValueLiteral()
		if err != nil {
			return nil, err
		}
		return &FilterGreaterOrEqual{Attribute: attr, Value: value}, nil
	}
	if p.pos+1 < len(p.input) && p.input[p.pos] == '<' && p.input[p.pos+1] == '=' {
		p.pos += 2
		value, err := p.parseValueLiteral()
		if err != nil {
			return nil, err
		}
		return &FilterLessOrEqual{Attribute: attr, Value: value}, nil
	}
	if p.pos+1 < len(p.input) && p.input[p.pos] == '~' && p.input[p.pos+1] == '=' {
		p.pos += 2
		value, err := p.parseValueLiteral()
		if err != nil {
			return nil, err
		}
		return &FilterApprox{Attribute: attr, Value: value}, nil
	}
	if p.pos < len(p.input) && p.input[p.pos] == '=' {
		p.pos++
		if p.pos+1 < len(p.input) && p.input[p.pos] == '*' && p.input[p.pos+1] == ')' {
			p.pos++
			return &FilterPresent{Attribute: attr}, nil
		}
		return p.parseEqualityOrSubstring(attr)
	}
	return nil, newError(KindInvalidInput, "expected filter operator at position %d", p.pos)
}

func (p *textFilterParser) parseExtensible(attr string) (Filter, error) {
	f := &FilterExtensible{MatchType: attr}
	for p.pos < len(p.input) && p.input[p.pos] == ':' {
		p.pos++
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] != ':' && p.input[p.pos] != '=' {
			p.pos++
		}
		token := p.input[start:p.pos]
		if token == "dn" {
			f.DNAttributes = true
		} else if token != "" {
			f.Rule = token
		}
		if p.pos < len(p.input) && p.input[p.pos] == '=' {
			break
		}
	}
	if p.pos >= len(p.input) || p.input[p.pos] != '=' {
		return nil, newError(KindInvalidInput, "expected ':=' in extensible filter at position %d", p.pos)
	}
	p.pos++
	value, err := p.parseValueLiteral()
	if err != nil {
		return nil, err
	}
	f.Value = value
	return f, nil
}

// parseEqualityOrSubstring reads the value up to the closing ')',
// splitting on unescaped '*' to decide between an equality match and a
// substring match.
func (p *textFilterParser) parseEqualityOrSubstring(attr string) (Filter, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ')' {
		if p.input[p.pos] == '\\' {
			p.pos += 2
			continue
		}
		p.pos++
	}
	if p.pos > len(p.input) {
		return nil, newError(KindInvalidInput, "unterminated filter value")
	}
	raw := p.input[start:p.pos]
	if !strings.Contains(raw, "*") {
		value, err := unescapeFilterValue(raw)
		if err != nil {
			return nil, err
		}
		return &FilterEquality{Attribute: attr, Value: value}, nil
	}
	parts := splitUnescaped(raw, '*')
	sub := &FilterSubstring{Attribute: attr}
	for i, part := range parts {
		value, err := unescapeFilterValue(part)
		if err != nil {
			return nil, err
		}
		switch {
		case i == 0:
			if len(value) > 0 {
				sub.Initial = value
			}
		case i == len(parts)-1:
			if len(value) > 0 {
				sub.Final = value
			}
		default:
			sub.Any = append(sub.Any, value)
		}
	}
	return sub, nil
}

func (p *textFilterParser) parseValueLiteral() ([]byte, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ')' {
		if p.input[p.pos] == '\\' {
			p.pos += 2
			continue
		}
		p.pos++
	}
	return unescapeFilterValue(p.input[start:p.pos])
}

func isAttrChar(c byte) bool {
	return c == '-' || c == '.' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// splitUnescaped splits s on sep, ignoring any sep preceded by an
// unescaped backslash.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// unescapeFilterValue converts RFC 4515 `\XX` hex escapes to their raw
// byte and rejects a bare, unescaped '('.
func unescapeFilterValue(s string) ([]byte, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '(' {
			return nil, newError(KindInvalidInput, "unescaped '(' in filter value %q", s)
		}
		if c == '\\' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(hexVal(s[i+1])<<4 | hexVal(s[i+2]))
			i += 2
			continue
		}
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(c)
	}
	return []byte(b.String()), nil
}

// filterEscape renders s for inclusion in a textual filter, escaping the
// characters RFC 4515 section 3 requires: '*', '(', ')', '\\', and NUL.
func filterEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '*', '(', ')', '\\':
			b.WriteByte('\\')
			hex := "0123456789abcdef"
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		case 0:
			b.WriteString(`\00`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
