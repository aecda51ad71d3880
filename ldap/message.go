package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// request is implemented by every request message variant. encodeRequest
// wraps its body in the full LDAPMessage envelope: SEQUENCE { messageId,
// [protocolOp], [0] controls? }.
type request interface {
	protocolOp() int
	encodeBody() *ber.Packet
	controls() []Control
}

func encodeRequest(messageID int64, r request) *ber.Packet {
	envelope := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAPMessage")
	envelope.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, messageID, "MessageID"))
	envelope.AppendChild(r.encodeBody())
	if c := encodeControls(r.controls()); c != nil {
		envelope.AppendChild(c)
	}
	return envelope
}

// envelope is a decoded LDAPMessage: the message id, the protocol-op tag
// and body, and any response controls.
type envelope struct {
	messageID  int64
	protocolOp int
	body       *ber.Packet
	controls   []Control
}

// decodeEnvelope validates the outer SEQUENCE { INTEGER, [op], [0]? }
// shape and splits it into its parts, without interpreting the body.
func decodeEnvelope(p *ber.Packet) (*envelope, error) {
	if p.ClassType != ber.ClassUniversal || p.TagType != ber.TypeConstructed || p.Tag != ber.TagSequence {
		return nil, newError(KindProtocolDecode, "malformed LDAPMessage envelope")
	}
	if len(p.Children) < 2 {
		return nil, newError(KindProtocolDecode, "LDAPMessage envelope missing fields")
	}
	idPacket := p.Children[0]
	id, ok := idPacket.Value.(int64)
	if !ok {
		return nil, newError(KindProtocolDecode, "malformed LDAPMessage id")
	}
	e := &envelope{
		messageID:  id,
		protocolOp: int(p.Children[1].Tag),
		body:       p.Children[1],
	}
	if len(p.Children) > 2 {
		controls, err := decodeControls(p.Children[2])
		if err != nil {
			return nil, err
		}
		e.controls = controls
	}
	return e, nil
}

// Message is the common surface every decoded response exposes.
type Message struct {
	MessageID  int64
	Controls   []Control
	protocolOp int
}

// resultResponse is the LDAPResult shape shared by every terminal
// response, SearchResultDone included: SEQUENCE { ENUMERATED resultCode, matchedDN, diagnosticMessage, referral? }
type resultResponse struct {
	ResultCode        int
	MatchedDN         string
	DiagnosticMessage string
	Referrals         []string
}

func decodeResultResponse(body *ber.Packet) (*resultResponse, error) {
	if len(body.Children) < 3 {
		return nil, newError(KindProtocolDecode, "malformed LDAPResult")
	}
	code, ok := body.Children[0].Value.(int64)
	if !ok {
		return nil, newError(KindProtocolDecode, "malformed LDAPResult resultCode")
	}
	r := &resultResponse{
		ResultCode:        int(code),
		MatchedDN:         string(body.Children[1].Data.Bytes()),
		DiagnosticMessage: string(body.Children[2].Data.Bytes()),
	}
	if len(body.Children) > 3 {
		referral := body.Children[3]
		if referral.ClassType == ber.ClassContext && referral.Tag == 3 {
			for _, c := range referral.Children {
				r.Referrals = append(r.Referrals, string(c.Data.Bytes()))
			}
		}
	}
	return r, nil
}

// asError maps a non-success resultResponse to a typed *Error, or
// returns nil for success.
func (r *resultResponse) asError() error {
	if r.ResultCode == ResultSuccess {
		return nil
	}
	return newServerError(r.ResultCode, r.DiagnosticMessage)
}

// decodeResponseEnvelope decodes a packet (as produced by the BER
// primitive's frame reader) into an envelope ready for op-specific
// decoding.
func decodeResponseEnvelope(p *ber.Packet) (*envelope, error) {
	return decodeEnvelope(p)
}

func applicationOpName(op int) string {
	if name, ok := applicationName[op]; ok {
		return name
	}
	return "Unknown"
}
