package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// CompareRequest tests whether an entry carries a given attribute value,
// RFC 4511 section 4.10. A successful comparison resolves to
// ResultCompareTrue or ResultCompareFalse, neither of which is an error;
// Client.Compare reports the outcome through CompareResponse.Matched.
type CompareRequest struct {
	DN        string
	Attribute string
	Value     []byte
	Control   []Control
}

func (r *CompareRequest) protocolOp() int     { return ApplicationCompareRequest }
func (r *CompareRequest) controls() []Control { return r.Control }

func (r *CompareRequest) encodeBody() *ber.Packet {
	p := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationCompareRequest, nil, "Compare Request")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.DN, "DN"))
	ava := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "AVA")
	ava.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.Attribute, "Attribute"))
	ava.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(r.Value), "Value"))
	p.AppendChild(ava)
	return p
}

// NewCompareRequest builds a CompareRequest against dn.
func NewCompareRequest(dn, attribute string, value []byte, controls ...Control) *CompareRequest {
	return &CompareRequest{DN: dn, Attribute: attribute, Value: value, Control: controls}
}

// CompareResponse is the result of a CompareRequest.
type CompareResponse struct {
	Message
	resultResponse
}

func decodeCompareResponse(e *envelope) (*CompareResponse, error) {
	r, err := decodeResultResponse(e.body)
	if err != nil {
		return nil, err
	}
	return &CompareResponse{
		Message:        Message{MessageID: e.messageID, Controls: e.controls, protocolOp: e.protocolOp},
		resultResponse: *r,
	}, nil
}

// Matched reports whether the comparison succeeded. Any resultCode other
// than CompareTrue/CompareFalse is surfaced as an error by the caller
// before Matched is consulted.
func (r *CompareResponse) Matched() bool {
	return r.ResultCode == ResultCompareTrue
}
