package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

const (
	extendedRequestTagName  = 0
	extendedRequestTagValue = 1

	extendedResponseTagName  = 10
	extendedResponseTagValue = 11
)

// ExtendedRequest is a generic RFC 4511 section 4.12 extended operation:
// an OID naming the operation and an optional opaque request value.
type ExtendedRequest struct {
	Name    string
	Value   []byte
	Control []Control
}

func (r *ExtendedRequest) protocolOp() int     { return ApplicationExtendedRequest }
func (r *ExtendedRequest) controls() []Control { return r.Control }

func (r *ExtendedRequest) encodeBody() *ber.Packet {
	p := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationExtendedRequest, nil, "Extended Request")
	p.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, extendedRequestTagName, r.Name, "Name"))
	if r.Value != nil {
		p.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, extendedRequestTagValue, string(r.Value), "Value"))
	}
	return p
}

// ExtendedResponse is the result of an ExtendedRequest.
type ExtendedResponse struct {
	Message
	resultResponse
	ResponseName  string
	ResponseValue []byte
}

func decodeExtendedResponse(e *envelope) (*ExtendedResponse, error) {
	r, err := decodeResultResponse(e.body)
	if err != nil {
		return nil, err
	}
	resp := &ExtendedResponse{
		Message:        Message{MessageID: e.messageID, Controls: e.controls, protocolOp: e.protocolOp},
		resultResponse: *r,
	}
	if len(e.body.Children) > 3 {
		for _, c := range e.body.Children[3:] {
			switch int(c.Tag) {
			case extendedResponseTagName:
				resp.ResponseName = string(c.Data.Bytes())
			case extendedResponseTagValue:
				resp.ResponseValue = c.Data.Bytes()
			}
		}
	}
	return resp, nil
}

// NewWhoAmIRequest builds the RFC 4532 "Who am I?" extended request.
func NewWhoAmIRequest() *ExtendedRequest {
	return &ExtendedRequest{Name: OIDWhoAmI}
}

// AuthzID returns the authzId string returned by a WhoAmI request's
// response value (e.g. "dn:cn=admin,dc=example,dc=com").
func (r *ExtendedResponse) AuthzID() string {
	return string(r.ResponseValue)
}

const (
	passwordModifyTagUserIdentity = 0
	passwordModifyTagOldPassword  = 1
	passwordModifyTagNewPassword  = 2

	passwordModifyResponseTagGenPassword = 0
)

// NewPasswordModifyRequest builds the RFC 3062 Password Modify extended
// request. userIdentity may be empty to mean "the bound identity"; either
// password may be empty to mean "let the server choose" (new) or
// "unauthenticated update" (old, rarely supported).
func NewPasswordModifyRequest(userIdentity string, oldPassword, newPassword []byte) *ExtendedRequest {
	body := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "PasswordModifyRequest")
	if userIdentity != "" {
		body.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, passwordModifyTagUserIdentity, userIdentity, "UserIdentity"))
	}
	if len(oldPassword) > 0 {
		body.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, passwordModifyTagOldPassword, string(oldPassword), "OldPassword"))
	}
	if len(newPassword) > 0 {
		body.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, passwordModifyTagNewPassword, string(newPassword), "NewPassword"))
	}
	return &ExtendedRequest{Name: OIDPasswordModify, Value: body.Bytes()}
}

// GeneratedPassword extracts the server-generated password from a
// Password Modify response, when the caller left newPassword empty.
func (r *ExtendedResponse) GeneratedPassword() ([]byte, error) {
	if len(r.ResponseValue) == 0 {
		return nil, nil
	}
	p := ber.DecodePacket(r.ResponseValue)
	for _, c := range p.Children {
		if int(c.Tag) == passwordModifyResponseTagGenPassword {
			return c.Data.Bytes(), nil
		}
	}
	return nil, nil
}
