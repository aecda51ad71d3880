package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// DeleteRequest removes a leaf entry, RFC 4511 section 4.8. The DN is
// carried directly as the PDU's primitive OCTET STRING body, not a
// SEQUENCE, which is why its encodeBody returns a primitive packet.
type DeleteRequest struct {
	DN      string
	Control []Control
}

func (r *DeleteRequest) protocolOp() int     { return ApplicationDelRequest }
func (r *DeleteRequest) controls() []Control { return r.Control }

func (r *DeleteRequest) encodeBody() *ber.Packet {
	p := ber.NewString(ber.ClassApplication, ber.TypePrimitive, ApplicationDelRequest, r.DN, "Delete Request")
	return p
}

// NewDeleteRequest builds a DeleteRequest for dn.
func NewDeleteRequest(dn string, controls ...Control) *DeleteRequest {
	return &DeleteRequest{DN: dn, Control: controls}
}

// DeleteResponse is the result of a DeleteRequest.
type DeleteResponse struct {
	Message
	resultResponse
}

func decodeDeleteResponse(e *envelope) (*DeleteResponse, error) {
	r, err := decodeResultResponse(e.body)
	if err != nil {
		return nil, err
	}
	return &DeleteResponse{
		Message:        Message{MessageID: e.messageID, Controls: e.controls, protocolOp: e.protocolOp},
		resultResponse: *r,
	}, nil
}
