package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// AddRequest creates a new entry, RFC 4511 section 4.7.
type AddRequest struct {
	DN         string
	Attributes []Attribute
	Control    []Control
}

func (r *AddRequest) protocolOp() int     { return ApplicationAddRequest }
func (r *AddRequest) controls() []Control { return r.Control }

func (r *AddRequest) encodeBody() *ber.Packet {
	p := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationAddRequest, nil, "Add Request")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.DN, "DN"))
	attrs := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Attributes")
	for _, a := range r.Attributes {
		attrs.AppendChild(encodeAttribute(a))
	}
	p.AppendChild(attrs)
	return p
}

func encodeAttribute(a Attribute) *ber.Packet {
	p := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Attribute")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, a.Type, "Type"))
	values := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSet, nil, "Values")
	for _, v := range a.Values {
		values.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(v), "Value"))
	}
	p.AppendChild(values)
	return p
}

// NewAddRequest builds an AddRequest for dn with the given attributes.
func NewAddRequest(dn string, attributes []Attribute, controls ...Control) *AddRequest {
	return &AddRequest{DN: dn, Attributes: attributes, Control: controls}
}

// AddResponse is the result of an AddRequest.
type AddResponse struct {
	Message
	resultResponse
}

func decodeAddResponse(e *envelope) (*AddResponse, error) {
	r, err := decodeResultResponse(e.body)
	if err != nil {
		return nil, err
	}
	return &AddResponse{
		Message:        Message{MessageID: e.messageID, Controls: e.controls, protocolOp: e.protocolOp},
		resultResponse: *r,
	}, nil
}
