package ldap

import (
	"testing"

	ber "github.com/go-asn1-ber/asn1-ber"
)

func TestEncodeRequestEnvelopeShape(t *testing.T) {
	req := NewSimpleBindRequest("cn=admin,dc=example,dc=com", []byte("secret"))
	p := encodeRequest(7, req)

	e, err := decodeEnvelope(ber.DecodePacket(p.Bytes()))
	if err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if e.messageID != 7 {
		t.Errorf("messageID = %d, want 7", e.messageID)
	}
	if e.protocolOp != ApplicationBindRequest {
		t.Errorf("protocolOp = %d, want %d", e.protocolOp, ApplicationBindRequest)
	}
}

func TestDecodeResultResponseSuccess(t *testing.T) {
	body := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationAddResponse, nil, "Add Response")
	body.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, int64(ResultSuccess), "resultCode"))
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "", "matchedDN"))
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "", "diagnosticMessage"))

	r, err := decodeResultResponse(body)
	if err != nil {
		t.Fatalf("decodeResultResponse: %v", err)
	}
	if r.asError() != nil {
		t.Errorf("asError() = %v, want nil for success", r.asError())
	}
}

func TestDecodeResultResponseFailureCarriesDiagnostic(t *testing.T) {
	body := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationAddResponse, nil, "Add Response")
	body.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, int64(ResultNoSuchObject), "resultCode"))
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "ou=missing", "matchedDN"))
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "no such entry", "diagnosticMessage"))

	r, err := decodeResultResponse(body)
	if err != nil {
		t.Fatalf("decodeResultResponse: %v", err)
	}
	if !IsServerError(r.asError(), ResultNoSuchObject) {
		t.Fatalf("asError() = %v, want ResultNoSuchObject server error", r.asError())
	}
	if r.MatchedDN != "ou=missing" {
		t.Errorf("MatchedDN = %q, want %q", r.MatchedDN, "ou=missing")
	}
}

func TestModifyDNSplitsAtFirstUnescapedComma(t *testing.T) {
	r := NewModifyDNRequest("cn=old,dc=example,dc=com", "cn=new,dc=example,dc=com")
	if r.NewRDN != "cn=new" {
		t.Errorf("NewRDN = %q, want %q", r.NewRDN, "cn=new")
	}
	if r.NewSuperior != "dc=example,dc=com" {
		t.Errorf("NewSuperior = %q, want %q", r.NewSuperior, "dc=example,dc=com")
	}
}

func TestModifyDNWithoutSuperiorKeepsSameParent(t *testing.T) {
	r := NewModifyDNRequest("cn=old,dc=example,dc=com", "cn=new")
	if r.NewRDN != "cn=new" {
		t.Errorf("NewRDN = %q, want %q", r.NewRDN, "cn=new")
	}
	if r.NewSuperior != "" {
		t.Errorf("NewSuperior = %q, want empty", r.NewSuperior)
	}
}

func TestModifyDNEscapedCommaNotASplit(t *testing.T) {
	r := NewModifyDNRequest("cn=old,dc=example,dc=com", `cn=Smith\, John`)
	if r.NewRDN != `cn=Smith\, John` {
		t.Errorf("NewRDN = %q, want unsplit value with escaped comma", r.NewRDN)
	}
	if r.NewSuperior != "" {
		t.Errorf("NewSuperior = %q, want empty", r.NewSuperior)
	}
}
