package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// Authentication choice tags within a BindRequest, RFC 4511 section 4.2.
const (
	authTagSimple = 0
	authTagSASL   = 3
)

// BindRequest carries either a simple (DN + password) or a SASL
// (mechanism + credentials) authentication choice. The password/
// credentials field, if present, is never logged.
type BindRequest struct {
	Name             string
	SimplePassword   []byte // set for simple bind; mutually exclusive with SASL fields
	SASLMechanism    string // "PLAIN" or "EXTERNAL"; set for SASL bind
	SASLCredentials  []byte
	isSASL           bool
	Control          []Control
}

func (r *BindRequest) protocolOp() int     { return ApplicationBindRequest }
func (r *BindRequest) controls() []Control { return r.Control }

func (r *BindRequest) encodeBody() *ber.Packet {
	p := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationBindRequest, nil, "Bind Request")
	p.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, int64(protocolVersion), "Version"))
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.Name, "Name"))

	if r.isSASL {
		sasl := ber.Encode(ber.ClassContext, ber.TypeConstructed, authTagSASL, nil, "SASL")
		sasl.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.SASLMechanism, "Mechanism"))
		if r.SASLCredentials != nil {
			sasl.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(r.SASLCredentials), "Credentials"))
		}
		p.AppendChild(sasl)
	} else {
		p.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, authTagSimple, string(r.SimplePassword), "Password"))
	}
	return p
}

// NewSimpleBindRequest builds a simple-authentication BindRequest.
func NewSimpleBindRequest(dn string, password []byte, controls ...Control) *BindRequest {
	return &BindRequest{Name: dn, SimplePassword: password, Control: controls}
}

// NewSASLBindRequest builds a SASL BindRequest for mechanism "PLAIN" or
// "EXTERNAL".
func NewSASLBindRequest(mechanism string, credentials []byte, controls ...Control) *BindRequest {
	return &BindRequest{SASLMechanism: mechanism, SASLCredentials: credentials, isSASL: true, Control: controls}
}

// BindResponse is the result of a BindRequest; a non-success ResultCode
// surfaces as a *Error from Client.Bind.
type BindResponse struct {
	Message
	resultResponse
}

func decodeBindResponse(e *envelope) (*BindResponse, error) {
	r, err := decodeResultResponse(e.body)
	if err != nil {
		return nil, err
	}
	return &BindResponse{
		Message:        Message{MessageID: e.messageID, Controls: e.controls, protocolOp: e.protocolOp},
		resultResponse: *r,
	}, nil
}
