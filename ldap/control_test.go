package ldap

import (
	"bytes"
	"testing"

	ber "github.com/go-asn1-ber/asn1-ber"
)

func TestEncodeDecodeControlsRoundTrip(t *testing.T) {
	controls := []Control{
		NewControl("1.2.3.4", true, []byte("payload")),
		NewPagingControl(50, []byte("cookie")),
	}
	encoded := encodeControls(controls)
	decoded, err := decodeControls(ber.DecodePacket(encoded.Bytes()))
	if err != nil {
		t.Fatalf("decodeControls: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d controls, want 2", len(decoded))
	}
	if decoded[0].OID() != "1.2.3.4" || !decoded[0].Criticality() {
		t.Errorf("controls[0] = %+v", decoded[0])
	}
	if decoded[1].OID() != OIDPagedResults {
		t.Errorf("controls[1].OID() = %q, want %q", decoded[1].OID(), OIDPagedResults)
	}
}

func TestEncodeControlsEmptyIsNil(t *testing.T) {
	if p := encodeControls(nil); p != nil {
		t.Errorf("encodeControls(nil) = %v, want nil", p)
	}
}

func TestPagingControlRoundTrip(t *testing.T) {
	pc := NewPagingControl(25, []byte("abc"))
	wrapper := ber.Encode(ber.ClassContext, ber.TypeConstructed, 0, nil, "Controls")
	wrapper.AppendChild(pc.encode())
	decoded, err := decodeControls(ber.DecodePacket(wrapper.Bytes()))
	if err != nil {
		t.Fatalf("decodeControls: %v", err)
	}
	found, err := findPagingControl(decoded)
	if err != nil {
		t.Fatalf("findPagingControl: %v", err)
	}
	if found == nil {
		t.Fatal("expected a paging control")
	}
	if found.Size != 25 || !bytes.Equal(found.Cookie, []byte("abc")) {
		t.Errorf("found = %+v", found)
	}
}

func TestFindPagingControlAbsent(t *testing.T) {
	found, err := findPagingControl([]Control{NewControl("1.2.3.4", false, nil)})
	if err != nil {
		t.Fatalf("findPagingControl: %v", err)
	}
	if found != nil {
		t.Errorf("found = %+v, want nil", found)
	}
}
