package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// ModifyRequest applies a list of changes to an entry, RFC 4511 section 4.6.
type ModifyRequest struct {
	DN      string
	Changes []Change
	Control []Control
}

func (r *ModifyRequest) protocolOp() int     { return ApplicationModifyRequest }
func (r *ModifyRequest) controls() []Control { return r.Control }

func (r *ModifyRequest) encodeBody() *ber.Packet {
	p := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationModifyRequest, nil, "Modify Request")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.DN, "DN"))
	changes := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Changes")
	for _, c := range r.Changes {
		changePacket := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Change")
		changePacket.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, int64(c.Operation), "Operation"))
		changePacket.AppendChild(encodeAttribute(c.Attribute))
		changes.AppendChild(changePacket)
	}
	p.AppendChild(changes)
	return p
}

// NewModifyRequest builds a ModifyRequest for dn with the given changes.
func NewModifyRequest(dn string, changes []Change, controls ...Control) *ModifyRequest {
	return &ModifyRequest{DN: dn, Changes: changes, Control: controls}
}

// ModifyResponse is the result of a ModifyRequest.
type ModifyResponse struct {
	Message
	resultResponse
}

func decodeModifyResponse(e *envelope) (*ModifyResponse, error) {
	r, err := decodeResultResponse(e.body)
	if err != nil {
		return nil, err
	}
	return &ModifyResponse{
		Message:        Message{MessageID: e.messageID, Controls: e.controls, protocolOp: e.protocolOp},
		resultResponse: *r,
	}, nil
}
