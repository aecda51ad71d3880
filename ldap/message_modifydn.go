package ldap

import (
	"strings"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// ModifyDNRequest renames and/or moves an entry, RFC 4511 section 4.9.
// NewSuperior is optional: it is only encoded when non-empty. DeleteOldRDN
// is always sent as true; this client never leaves the old RDN behind as
// an attribute of the renamed entry.
type ModifyDNRequest struct {
	DN          string
	NewRDN      string
	NewSuperior string
	Control     []Control
}

const deleteOldRDN = true

func (r *ModifyDNRequest) protocolOp() int     { return ApplicationModifyDNRequest }
func (r *ModifyDNRequest) controls() []Control { return r.Control }

func (r *ModifyDNRequest) encodeBody() *ber.Packet {
	p := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationModifyDNRequest, nil, "Modify DN Request")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.DN, "DN"))
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.NewRDN, "NewRDN"))
	p.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, deleteOldRDN, "DeleteOldRDN"))
	if r.NewSuperior != "" {
		p.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, 0, r.NewSuperior, "NewSuperior"))
	}
	return p
}

// NewModifyDNRequest builds a ModifyDNRequest that renames dn to newDN.
// newDN is split at its first unescaped comma: the part before becomes
// NewRDN, the remainder becomes NewSuperior (omitted when newDN has no
// unescaped comma, i.e. it names a new RDN within the same parent).
func NewModifyDNRequest(dn, newDN string, controls ...Control) *ModifyDNRequest {
	rdn, superior := splitFirstUnescapedComma(newDN)
	return &ModifyDNRequest{DN: dn, NewRDN: rdn, NewSuperior: superior, Control: controls}
}

func splitFirstUnescapedComma(s string) (head, tail string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == ',' {
			return s[:i], strings.TrimLeft(s[i+1:], " ")
		}
	}
	return s, ""
}

// ModifyDNResponse is the result of a ModifyDNRequest.
type ModifyDNResponse struct {
	Message
	resultResponse
}

func decodeModifyDNResponse(e *envelope) (*ModifyDNResponse, error) {
	r, err := decodeResultResponse(e.body)
	if err != nil {
		return nil, err
	}
	return &ModifyDNResponse{
		Message:        Message{MessageID: e.messageID, Controls: e.controls, protocolOp: e.protocolOp},
		resultResponse: *r,
	}, nil
}
