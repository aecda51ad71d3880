package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// UnbindRequest terminates a session, RFC 4511 section 4.3. It carries
// no response; the client closes the transport immediately after
// sending it.
type UnbindRequest struct {
	Control []Control
}

func (r *UnbindRequest) protocolOp() int     { return ApplicationUnbindRequest }
func (r *UnbindRequest) controls() []Control { return r.Control }

func (r *UnbindRequest) encodeBody() *ber.Packet {
	return ber.Encode(ber.ClassApplication, ber.TypePrimitive, ApplicationUnbindRequest, nil, "Unbind Request")
}
