package ldap

import (
	"io"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// messageParser reads successive LDAPMessage envelopes off a connection.
// It delegates framing to the BER primitive's own definite-length reader,
// which already tracks the offset and remaining length of the enclosing
// SEQUENCE as it blocks for more bytes; there is nothing left for this
// type to buffer itself.
type messageParser struct {
	r io.Reader
}

func newMessageParser(r io.Reader) *messageParser {
	return &messageParser{r: r}
}

// next blocks until a complete LDAPMessage has arrived and returns its
// decoded envelope. It returns the underlying io error unwrapped so the
// caller can distinguish io.EOF (orderly close) from a transport error.
func (p *messageParser) next() (*envelope, error) {
	packet, err := ber.ReadPacket(p.r)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(packet)
}
