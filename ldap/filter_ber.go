package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// ParseFilterBER decodes the RFC 4511 binary form of a filter from a
// parsed BER packet (the Filter CHOICE inside a SearchRequest).
func ParseFilterBER(p *ber.Packet) (Filter, error) {
	if p == nil {
		return nil, newError(KindProtocolDecode, "nil filter packet")
	}
	switch int(p.Tag) {
	case filterTagAnd:
		children, err := decodeFilterSet(p)
		if err != nil {
			return nil, err
		}
		return &FilterAnd{Children: children}, nil
	case filterTagOr:
		children, err := decodeFilterSet(p)
		if err != nil {
			return nil, err
		}
		return &FilterOr{Children: children}, nil
	case filterTagNot:
		if len(p.Children) != 1 {
			return nil, newError(KindProtocolDecode, "not filter must have exactly one child")
		}
		child, err := ParseFilterBER(p.Children[0])
		if err != nil {
			return nil, err
		}
		return &FilterNot{Child: child}, nil
	case filterTagEqualityMatch:
		attr, value, err := decodeAVA(p)
		if err != nil {
			return nil, err
		}
		return &FilterEquality{Attribute: attr, Value: value}, nil
	case filterTagSubstrings:
		return decodeSubstrings(p)
	case filterTagGreaterOrEqual:
		attr, value, err := decodeAVA(p)
		if err != nil {
			return nil, err
		}
		return &FilterGreaterOrEqual{Attribute: attr, Value: value}, nil
	case filterTagLessOrEqual:
		attr, value, err := decodeAVA(p)
		if err != nil {
			return nil, err
		}
		return &FilterLessOrEqual{Attribute: attr, Value: value}, nil
	case filterTagPresent:
		return &FilterPresent{Attribute: string(p.Data.Bytes())}, nil
	case filterTagApproxMatch:
		attr, value, err := decodeAVA(p)
		if err != nil {
			return nil, err
		}
		return &FilterApprox{Attribute: attr, Value: value}, nil
	case filterTagExtensibleMatch:
		return decodeExtensible(p)
	default:
		return nil, newError(KindProtocolDecode, "unknown filter tag %d", p.Tag)
	}
}

func decodeFilterSet(p *ber.Packet) ([]Filter, error) {
	if len(p.Children) == 0 {
		return nil, nil
	}
	children := make([]Filter, 0, len(p.Children))
	for _, c := range p.Children {
		f, err := ParseFilterBER(c)
		if err != nil {
			return nil, err
		}
		children = append(children, f)
	}
	return children, nil
}

func decodeAVA(p *ber.Packet) (string, []byte, error) {
	if len(p.Children) != 2 {
		return "", nil, newError(KindProtocolDecode, "attribute value assertion must have 2 children")
	}
	return string(p.Children[0].Data.Bytes()), p.Children[1].Data.Bytes(), nil
}

func decodeSubstrings(p *ber.Packet) (Filter, error) {
	if len(p.Children) != 2 {
		return nil, newError(KindProtocolDecode, "substrings filter must have 2 children")
	}
	sub := &FilterSubstring{Attribute: string(p.Children[0].Data.Bytes())}
	for _, part := range p.Children[1].Children {
		value := part.Data.Bytes()
		switch int(part.Tag) {
		case substringTagInitial:
			sub.Initial = value
		case substringTagAny:
			sub.Any = append(sub.Any, value)
		case substringTagFinal:
			sub.Final = value
		default:
			return nil, newError(KindProtocolDecode, "unknown substring choice tag %d", part.Tag)
		}
	}
	return sub, nil
}

func decodeExtensible(p *ber.Packet) (Filter, error) {
	f := &FilterExtensible{}
	for _, c := range p.Children {
		switch int(c.Tag) {
		case extensibleTagMatchingRule:
			f.Rule = string(c.Data.Bytes())
		case extensibleTagType:
			f.MatchType = string(c.Data.Bytes())
		case extensibleTagMatchValue:
			f.Value = c.Data.Bytes()
		case extensibleTagDNAttributes:
			if b, ok := c.Value.(bool); ok {
				f.DNAttributes = b
			}
		default:
			return nil, newError(KindProtocolDecode, "unknown extensible match field tag %d", c.Tag)
		}
	}
	return f, nil
}
