package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// AbandonRequest cancels a previously sent request by message id, RFC
// 4511 section 4.11. Like Unbind it has no response; Client.Abandon
// returns once the AbandonRequest itself is written and leaves the
// abandoned request's pending entry in place.
type AbandonRequest struct {
	MessageID int64
	Control   []Control
}

func (r *AbandonRequest) protocolOp() int     { return ApplicationAbandonRequest }
func (r *AbandonRequest) controls() []Control { return r.Control }

func (r *AbandonRequest) encodeBody() *ber.Packet {
	return ber.NewInteger(ber.ClassApplication, ber.TypePrimitive, ApplicationAbandonRequest, r.MessageID, "Abandon Request")
}
