package ldap

import "testing"

func TestParseDNRoundTrip(t *testing.T) {
	cases := []string{
		"cn=admin,dc=example,dc=com",
		"cn=Jim Smith,dc=example,dc=com",
		"cn=John+sn=Doe,dc=example,dc=com",
		`cn=Jane\, Doe,dc=example,dc=com`,
	}

	for _, s := range cases {
		dn, err := ParseDN(s, true)
		if err != nil {
			t.Fatalf("ParseDN(%q) = %v", s, err)
		}
		got := dn.String()
		dn2, err := ParseDN(got, true)
		if err != nil {
			t.Fatalf("ParseDN(%q) (reparse) = %v", got, err)
		}
		if !dn.Equal(dn2) {
			t.Errorf("round trip mismatch for %q: got %q", s, got)
		}
	}
}

func TestParseDNQuoted(t *testing.T) {
	dn, err := ParseDN(`cn=" quoted value ",dc=example,dc=com`, true)
	if err != nil {
		t.Fatalf("ParseDN: %v", err)
	}
	if got := dn.RDNs[0].Attributes[0].Value; got != " quoted value " {
		t.Errorf("got %q, want %q", got, " quoted value ")
	}
}

func TestParseDNCompoundRDN(t *testing.T) {
	dn, err := ParseDN("cn=John+sn=Doe,dc=example,dc=com", true)
	if err != nil {
		t.Fatalf("ParseDN: %v", err)
	}
	if len(dn.RDNs) != 3 {
		t.Fatalf("got %d RDNs, want 3", len(dn.RDNs))
	}
	if len(dn.RDNs[0].Attributes) != 2 {
		t.Fatalf("got %d attributes in first RDN, want 2", len(dn.RDNs[0].Attributes))
	}
}

func TestParseDNStrictRejectsMissingEquals(t *testing.T) {
	if _, err := ParseDN("cnadmin,dc=example,dc=com", true); err == nil {
		t.Fatal("expected error for missing '='")
	}
}

func TestParseDNNonStrictAcceptsMissingEquals(t *testing.T) {
	if _, err := ParseDN("cnadmin,dc=example,dc=com", false); err != nil {
		t.Fatalf("non-strict parse should not fail: %v", err)
	}
}

func TestParseDNStrictRejectsUnbalancedQuotes(t *testing.T) {
	if _, err := ParseDN(`cn="unterminated,dc=example,dc=com`, true); err == nil {
		t.Fatal("expected error for unbalanced quotes")
	}
}

func TestRDNEqualIgnoresOrder(t *testing.T) {
	a := RDN{Attributes: []AttributeTypeAndValue{{Type: "cn", Value: "John"}, {Type: "sn", Value: "Doe"}}}
	b := RDN{Attributes: []AttributeTypeAndValue{{Type: "sn", Value: "Doe"}, {Type: "cn", Value: "John"}}}
	if !a.Equal(b) {
		t.Error("RDN.Equal should ignore attribute order")
	}
}

func TestEscapeDNValueWrapsLeadingSpace(t *testing.T) {
	dn := &DN{RDNs: []RDN{{Attributes: []AttributeTypeAndValue{{Type: "cn", Value: " Jim"}}}}}
	if got, want := dn.String(), `cn=" Jim"`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
