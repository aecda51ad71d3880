package ldap

import (
	"strings"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// BER tags for the Filter CHOICE, RFC 4511 section 4.5.1.7.
const (
	filterTagAnd             = 0
	filterTagOr              = 1
	filterTagNot             = 2
	filterTagEqualityMatch   = 3
	filterTagSubstrings      = 4
	filterTagGreaterOrEqual  = 5
	filterTagLessOrEqual     = 6
	filterTagPresent         = 7
	filterTagApproxMatch     = 8
	filterTagExtensibleMatch = 9
)

// Substring CHOICE tags within a SubstringFilter, RFC 4511 section 4.5.1.7.
const (
	substringTagInitial = 0
	substringTagAny     = 1
	substringTagFinal   = 2
)

// ExtensibleMatch field tags, RFC 4511 section 4.5.1.7.
const (
	extensibleTagMatchingRule = 1
	extensibleTagType         = 2
	extensibleTagMatchValue   = 3
	extensibleTagDNAttributes = 4
)

// Entry is the minimal view of a directory entry Filter.Matches needs:
// attribute name lookup, case-insensitively, returning raw values.
type Entry interface {
	FilterAttribute(name string) ([][]byte, bool)
}

// Filter is the sum type over every RFC 4515/4511 filter variant. Each
// variant implements BER encode, textual rendering, and local
// evaluation.
type Filter interface {
	encode() *ber.Packet
	String() string
	// Matches evaluates the filter against entry. strictCase, when
	// false, lowercases both sides of a string comparison before
	// comparing.
	Matches(entry Entry, strictCase bool) bool
}

// EncodeFilter renders f as a BER Packet, RFC 4511 binary form.
func EncodeFilter(f Filter) *ber.Packet { return f.encode() }

// FilterAnd matches when every child filter matches (or vacuously when
// there are no children, RFC 4526).
type FilterAnd struct{ Children []Filter }

func (f *FilterAnd) encode() *ber.Packet {
	p := ber.Encode(ber.ClassContext, ber.TypeConstructed, filterTagAnd, nil, "And")
	for _, c := range f.Children {
		p.AppendChild(c.encode())
	}
	return p
}

func (f *FilterAnd) String() string {
	var b strings.Builder
	b.WriteString("(&")
	for _, c := range f.Children {
		b.WriteString(c.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (f *FilterAnd) Matches(e Entry, strictCase bool) bool {
	for _, c := range f.Children {
		if !c.Matches(e, strictCase) {
			return false
		}
	}
	return true
}

// FilterOr matches when any child filter matches (never when there are
// no children, RFC 4526).
type FilterOr struct{ Children []Filter }

func (f *FilterOr) encode() *ber.Packet {
	p := ber.Encode(ber.ClassContext, ber.TypeConstructed, filterTagOr, nil, "Or")
	for _, c := range f.Children {
		p.AppendChild(c.encode())
	}
	return p
}

func (f *FilterOr) String() string {
	var b strings.Builder
	b.WriteString("(|")
	for _, c := range f.Children {
		b.WriteString(c.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (f *FilterOr) Matches(e Entry, strictCase bool) bool {
	for _, c := range f.Children {
		if c.Matches(e, strictCase) {
			return true
		}
	}
	return false
}

// FilterNot inverts its single child.
type FilterNot struct{ Child Filter }

func (f *FilterNot) encode() *ber.Packet {
	p := ber.Encode(ber.ClassContext, ber.TypeConstructed, filterTagNot, nil, "Not")
	p.AppendChild(f.Child.encode())
	return p
}

func (f *FilterNot) String() string { return "(!" + f.Child.String() + ")" }

func (f *FilterNot) Matches(e Entry, strictCase bool) bool {
	return !f.Child.Matches(e, strictCase)
}

// FilterEquality matches an attribute value exactly.
type FilterEquality struct {
	Attribute string
	Value     []byte
}

func (f *FilterEquality) encode() *ber.Packet {
	p := ber.Encode(ber.ClassContext, ber.TypeConstructed, filterTagEqualityMatch, nil, "Equality")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, f.Attribute, "Attribute"))
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(f.Value), "Value"))
	return p
}

func (f *FilterEquality) String() string {
	return "(" + filterEscape(f.Attribute) + "=" + filterEscape(string(f.Value)) + ")"
}

func (f *FilterEquality) Matches(e Entry, strictCase bool) bool {
	values, ok := e.FilterAttribute(f.Attribute)
	if !ok {
		return false
	}
	for _, v := range values {
		if valuesEqual(v, f.Value, strictCase) {
			return true
		}
	}
	return false
}

// FilterSubstring matches an attribute whose value starts with Initial
// (if set), contains every entry of Any in order, and ends with Final
// (if set).
type FilterSubstring struct {
	Attribute string
	Initial   []byte
	Any       [][]byte
	Final     []byte
}

func (f *FilterSubstring) encode() *ber.Packet {
	p := ber.Encode(ber.ClassContext, ber.TypeConstructed, filterTagSubstrings, nil, "Substrings")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, f.Attribute, "Attribute"))
	seq := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Substrings")
	if f.Initial != nil {
		seq.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, substringTagInitial, string(f.Initial), "Initial"))
	}
	for _, a := range f.Any {
		seq.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, substringTagAny, string(a), "Any"))
	}
	if f.Final != nil {
		seq.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, substringTagFinal, string(f.Final), "Final"))
	}
	p.AppendChild(seq)
	return p
}

func (f *FilterSubstring) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(filterEscape(f.Attribute))
	b.WriteByte('=')
	if f.Initial != nil {
		b.WriteString(filterEscape(string(f.Initial)))
	}
	b.WriteByte('*')
	for _, a := range f.Any {
		b.WriteString(filterEscape(string(a)))
		b.WriteByte('*')
	}
	if f.Final != nil {
		b.WriteString(filterEscape(string(f.Final)))
	}
	b.WriteByte(')')
	return b.String()
}

func (f *FilterSubstring) Matches(e Entry, strictCase bool) bool {
	values, ok := e.FilterAttribute(f.Attribute)
	if !ok {
		return false
	}
	for _, v := range values {
		if substringMatches(v, f, strictCase) {
			return true
		}
	}
	return false
}

func substringMatches(value []byte, f *FilterSubstring, strictCase bool) bool {
	s := normalizeCase(value, strictCase)
	if f.Initial != nil {
		initial := normalizeCase(f.Initial, strictCase)
		if !strings.HasPrefix(string(s), string(initial)) {
			return false
		}
		s = s[len(initial):]
	}
	if f.Final != nil {
		final := normalizeCase(f.Final, strictCase)
		if !strings.HasSuffix(string(s), string(final)) {
			return false
		}
		s = s[:len(s)-len(final)]
	}
	for _, a := range f.Any {
		any := normalizeCase(a, strictCase)
		idx := strings.Index(string(s), string(any))
		if idx < 0 {
			return false
		}
		s = s[idx+len(any):]
	}
	return true
}

// FilterGreaterOrEqual matches when a value is lexicographically >= Value.
type FilterGreaterOrEqual struct {
	Attribute string
	Value     []byte
}

func (f *FilterGreaterOrEqual) encode() *ber.Packet {
	return encodeAVA(filterTagGreaterOrEqual, f.Attribute, f.Value, "GreaterOrEqual")
}

func (f *FilterGreaterOrEqual) String() string {
	return "(" + filterEscape(f.Attribute) + ">=" + filterEscape(string(f.Value)) + ")"
}

func (f *FilterGreaterOrEqual) Matches(e Entry, strictCase bool) bool {
	c := compareAttribute(e, f.Attribute, f.Value, strictCase, true)
	return c != attributeAbsent && c >= 0
}

// FilterLessOrEqual matches when a value is lexicographically <= Value.
type FilterLessOrEqual struct {
	Attribute string
	Value     []byte
}

func (f *FilterLessOrEqual) encode() *ber.Packet {
	return encodeAVA(filterTagLessOrEqual, f.Attribute, f.Value, "LessOrEqual")
}

func (f *FilterLessOrEqual) String() string {
	return "(" + filterEscape(f.Attribute) + "<=" + filterEscape(string(f.Value)) + ")"
}

func (f *FilterLessOrEqual) Matches(e Entry, strictCase bool) bool {
	c := compareAttribute(e, f.Attribute, f.Value, strictCase, false)
	return c != attributeAbsent && c <= 0
}

// attributeAbsent is compareAttribute's sentinel for "the entry has no
// such attribute": neither ">=" nor "<=" can match it, since there is no
// value to compare.
const attributeAbsent = -2

// compareAttribute returns attributeAbsent when the attribute is absent,
// otherwise the maximal (greater set) or minimal (greater unset)
// strings.Compare result among all values (so ">=" / "<=" succeed if any
// one value qualifies).
func compareAttribute(e Entry, attr string, value []byte, strictCase, greater bool) int {
	values, ok := e.FilterAttribute(attr)
	if !ok || len(values) == 0 {
		return attributeAbsent
	}
	want := normalizeCase(value, strictCase)
	best := 1
	if greater {
		best = -1
	}
	for _, v := range values {
		c := strings.Compare(string(normalizeCase(v, strictCase)), string(want))
		if c == 0 {
			return 0
		}
		if (greater && c > best) || (!greater && c < best) {
			best = c
		}
	}
	return best
}

// FilterPresent matches when the attribute exists, regardless of value.
type FilterPresent struct{ Attribute string }

func (f *FilterPresent) encode() *ber.Packet {
	return ber.NewString(ber.ClassContext, ber.TypePrimitive, filterTagPresent, f.Attribute, "Present")
}

func (f *FilterPresent) String() string { return "(" + filterEscape(f.Attribute) + "=*)" }

func (f *FilterPresent) Matches(e Entry, _ bool) bool {
	_, ok := e.FilterAttribute(f.Attribute)
	return ok
}

// FilterApprox requests an approximate ("sounds like") match. The
// directory server defines the matching rule; evaluated locally it
// degrades to equality, since the client has no access to the server's
// phonetic algorithm.
type FilterApprox struct {
	Attribute string
	Value     []byte
}

func (f *FilterApprox) encode() *ber.Packet {
	return encodeAVA(filterTagApproxMatch, f.Attribute, f.Value, "Approx")
}

func (f *FilterApprox) String() string {
	return "(" + filterEscape(f.Attribute) + "~=" + filterEscape(string(f.Value)) + ")"
}

func (f *FilterApprox) Matches(e Entry, strictCase bool) bool {
	values, ok := e.FilterAttribute(f.Attribute)
	if !ok {
		return false
	}
	for _, v := range values {
		if valuesEqual(v, f.Value, strictCase) {
			return true
		}
	}
	return false
}

// FilterExtensible is the extensible-match (":dn:rule:=value") filter.
// MatchType and Rule are both optional; at least one of MatchType or
// Rule must be set. DNAttributes requests the server also test RDN
// attribute values.
type FilterExtensible struct {
	MatchType    string
	Rule         string
	Value        []byte
	DNAttributes bool
}

func (f *FilterExtensible) encode() *ber.Packet {
	p := ber.Encode(ber.ClassContext, ber.TypeConstructed, filterTagExtensibleMatch, nil, "ExtensibleMatch")
	if f.Rule != "" {
		p.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, extensibleTagMatchingRule, f.Rule, "MatchingRule"))
	}
	if f.MatchType != "" {
		p.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, extensibleTagType, f.MatchType, "Type"))
	}
	p.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, extensibleTagMatchValue, string(f.Value), "MatchValue"))
	if f.DNAttributes {
		p.AppendChild(ber.NewBoolean(ber.ClassContext, ber.TypePrimitive, extensibleTagDNAttributes, true, "DNAttributes"))
	}
	return p
}

func (f *FilterExtensible) String() string {
	var b strings.Builder
	b.WriteByte('(')
	if f.MatchType != "" {
		b.WriteString(filterEscape(f.MatchType))
	}
	if f.DNAttributes {
		b.WriteString(":dn")
	}
	if f.Rule != "" {
		b.WriteByte(':')
		b.WriteString(f.Rule)
	}
	b.WriteString(":=")
	b.WriteString(filterEscape(string(f.Value)))
	b.WriteByte(')')
	return b.String()
}

// Matches always returns false: extensible matching rules are
// server-defined, and this client has no local implementation of any of
// them (spec section 4.2).
func (f *FilterExtensible) Matches(Entry, bool) bool { return false }

func encodeAVA(tag ber.Tag, attribute string, value []byte, description string) *ber.Packet {
	p := ber.Encode(ber.ClassContext, ber.TypeConstructed, tag, nil, description)
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, attribute, "Attribute"))
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(value), "Value"))
	return p
}

func valuesEqual(a, b []byte, strictCase bool) bool {
	return string(normalizeCase(a, strictCase)) == string(normalizeCase(b, strictCase))
}

func normalizeCase(v []byte, strictCase bool) []byte {
	if strictCase {
		return v
	}
	return []byte(strings.ToLower(string(v)))
}

// AbsoluteTrueFilter returns the RFC 4526 always-true filter `(&)`.
func AbsoluteTrueFilter() Filter { return &FilterAnd{} }

// AbsoluteFalseFilter returns the RFC 4526 always-false filter `(|)`.
func AbsoluteFalseFilter() Filter { return &FilterOr{} }
