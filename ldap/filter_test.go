package ldap

import (
	"reflect"
	"testing"

	ber "github.com/go-asn1-ber/asn1-ber"
)

func TestParseFilterStringBasic(t *testing.T) {
	f, err := ParseFilterString("(&(cn=Jim*)(!(uid=2)))")
	if err != nil {
		t.Fatalf("ParseFilterString: %v", err)
	}
	and, ok := f.(*FilterAnd)
	if !ok || len(and.Children) != 2 {
		t.Fatalf("expected And of 2 children, got %#v", f)
	}
	sub, ok := and.Children[0].(*FilterSubstring)
	if !ok {
		t.Fatalf("expected first child to be substring, got %#v", and.Children[0])
	}
	if string(sub.Initial) != "Jim" || len(sub.Any) != 0 || sub.Final != nil {
		t.Errorf("substring = %+v, want initial=Jim no any no final", sub)
	}
	not, ok := and.Children[1].(*FilterNot)
	if !ok {
		t.Fatalf("expected second child to be not, got %#v", and.Children[1])
	}
	eq, ok := not.Child.(*FilterEquality)
	if !ok || eq.Attribute != "uid" || string(eq.Value) != "2" {
		t.Errorf("not child = %+v, want Equality(uid, 2)", not.Child)
	}

	if got, want := f.String(), "(&(cn=Jim*)(!(uid=2)))"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseFilterStringAutoWraps(t *testing.T) {
	f, err := ParseFilterString("cn=admin")
	if err != nil {
		t.Fatalf("ParseFilterString: %v", err)
	}
	if got, want := f.String(), "(cn=admin)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseFilterStringRoundTrip(t *testing.T) {
	cases := []string{
		"(cn=admin)",
		"(cn=*)",
		"(&(objectClass=person)(|(sn=Jensen)(cn=Babs J*)))",
		"(!(sn=John))",
		"(mail>=a@example.com)",
		"(mail<=z@example.com)",
		"(cn~=Smith)",
		"(uid:dn:2.4.6.8.10:=John)",
	}
	for _, s := range cases {
		f, err := ParseFilterString(s)
		if err != nil {
			t.Fatalf("ParseFilterString(%q): %v", s, err)
		}
		got := f.String()
		if got != s {
			t.Errorf("round trip mismatch: %q -> %q", s, got)
		}
		// fixed point after one more iteration
		f2, err := ParseFilterString(got)
		if err != nil {
			t.Fatalf("ParseFilterString(%q) (reparse): %v", got, err)
		}
		if f2.String() != got {
			t.Errorf("not a fixed point: %q -> %q -> %q", s, got, f2.String())
		}
	}
}

func TestParseFilterBERRoundTrip(t *testing.T) {
	cases := []Filter{
		&FilterEquality{Attribute: "cn", Value: []byte("admin")},
		&FilterAnd{Children: []Filter{
			&FilterSubstring{Attribute: "cn", Initial: []byte("Jim")},
			&FilterNot{Child: &FilterEquality{Attribute: "uid", Value: []byte("2")}},
		}},
		&FilterOr{},
		&FilterAnd{},
		&FilterPresent{Attribute: "objectClass"},
		&FilterGreaterOrEqual{Attribute: "mail", Value: []byte("a@example.com")},
	}

	for _, f := range cases {
		encoded := f.encode()
		decoded, err := ParseFilterBER(ber.DecodePacket(encoded.Bytes()))
		if err != nil {
			t.Fatalf("ParseFilterBER: %v", err)
		}
		if !reflect.DeepEqual(decoded, f) {
			t.Errorf("binary round trip mismatch: %#v -> %#v", f, decoded)
		}
	}
}

type fakeEntry map[string][][]byte

func (e fakeEntry) FilterAttribute(name string) ([][]byte, bool) {
	v, ok := e[name]
	return v, ok
}

func TestAbsoluteFilters(t *testing.T) {
	e := fakeEntry{"cn": [][]byte{[]byte("x")}}
	if !AbsoluteTrueFilter().Matches(e, true) {
		t.Error("(&) should match every entry")
	}
	if AbsoluteFalseFilter().Matches(e, true) {
		t.Error("(|) should match no entry")
	}
}

func TestFilterSubstringMatches(t *testing.T) {
	e := fakeEntry{"cn": [][]byte{[]byte("Jim Smith")}}
	f := &FilterSubstring{Attribute: "cn", Initial: []byte("Jim"), Any: [][]byte{[]byte(" ")}, Final: []byte("Smith")}
	if !f.Matches(e, true) {
		t.Error("expected substring match")
	}
}

func TestFilterOrderingMatchesExcludeAbsentAttribute(t *testing.T) {
	e := fakeEntry{"cn": [][]byte{[]byte("m")}}

	ge := &FilterGreaterOrEqual{Attribute: "uid", Value: []byte("5")}
	if ge.Matches(e, true) {
		t.Error(">= filter matched an entry with no uid attribute")
	}
	le := &FilterLessOrEqual{Attribute: "uid", Value: []byte("5")}
	if le.Matches(e, true) {
		t.Error("<= filter matched an entry with no uid attribute")
	}

	geOK := &FilterGreaterOrEqual{Attribute: "cn", Value: []byte("a")}
	if !geOK.Matches(e, true) {
		t.Error(">= filter should match cn=m against cn>=a")
	}
	leOK := &FilterLessOrEqual{Attribute: "cn", Value: []byte("z")}
	if !leOK.Matches(e, true) {
		t.Error("<= filter should match cn=m against cn<=z")
	}
}

func TestFilterExtensibleNeverMatchesLocally(t *testing.T) {
	e := fakeEntry{"cn": [][]byte{[]byte("x")}}
	f := &FilterExtensible{MatchType: "cn", Value: []byte("x")}
	if f.Matches(e, true) {
		t.Error("extensible match should never evaluate true locally")
	}
}
