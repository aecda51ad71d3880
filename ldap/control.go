package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// Control is a request or response control: an OID identifying its
// semantics, a criticality flag, and an opaque value whose structure is
// defined by the OID.
type Control interface {
	OID() string
	Criticality() bool
	encode() *ber.Packet
}

// GenericControl is a Control this client doesn't interpret further; its
// Value is the raw, still-encoded OCTET STRING contents.
type GenericControl struct {
	oid         string
	criticality bool
	Value       []byte
}

// NewControl builds a GenericControl.
func NewControl(oid string, criticality bool, value []byte) *GenericControl {
	return &GenericControl{oid: oid, criticality: criticality, Value: value}
}

func (c *GenericControl) OID() string       { return c.oid }
func (c *GenericControl) Criticality() bool { return c.criticality }

func (c *GenericControl) encode() *ber.Packet {
	return encodeControl(c.oid, c.criticality, c.Value, len(c.Value) > 0)
}

func encodeControl(oid string, criticality bool, value []byte, hasValue bool) *ber.Packet {
	p := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, oid, "Control Type"))
	if criticality {
		p.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, true, "Criticality"))
	}
	if hasValue {
		p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(value), "Control Value"))
	}
	return p
}

// encodeControls wraps controls, if any, in the [0] SEQUENCE OF envelope
// RFC 4511 section 4.1.11 defines. A nil/empty slice yields no envelope.
func encodeControls(controls []Control) *ber.Packet {
	if len(controls) == 0 {
		return nil
	}
	p := ber.Encode(ber.ClassContext, ber.TypeConstructed, 0, nil, "Controls")
	for _, c := range controls {
		p.AppendChild(c.encode())
	}
	return p
}

// decodeControls parses the [0] SEQUENCE OF controls envelope, if
// present, into GenericControl values. Callers that care about a
// specific control (e.g. paging) re-parse its Value with
// decodePagingControlValue.
func decodeControls(p *ber.Packet) ([]Control, error) {
	if p == nil {
		return nil, nil
	}
	var out []Control
	for _, child := range p.Children {
		if len(child.Children) < 1 {
			return nil, newError(KindProtocolDecode, "control missing OID")
		}
		oid, ok := child.Children[0].Value.(string)
		if !ok {
			oid = string(child.Children[0].ByteValue)
		}
		gc := &GenericControl{oid: oid}
		idx := 1
		if idx < len(child.Children) && child.Children[idx].Tag == ber.TagBoolean {
			if b, ok := child.Children[idx].Value.(bool); ok {
				gc.criticality = b
			}
			idx++
		}
		if idx < len(child.Children) {
			gc.Value = child.Children[idx].Data.Bytes()
		}
		out = append(out, gc)
	}
	return out, nil
}

// PagingControl is the RFC 2696 Paged-Results control: a requested page
// Size and an opaque server Cookie (empty on the first request, and
// echoed-back empty by the server to signal the result is exhausted).
type PagingControl struct {
	Size        uint32
	Cookie      []byte
	criticality bool
}

// NewPagingControl builds a non-critical Paged-Results request control.
func NewPagingControl(size uint32, cookie []byte) *PagingControl {
	return &PagingControl{Size: size, Cookie: cookie}
}

func (c *PagingControl) OID() string       { return OIDPagedResults }
func (c *PagingControl) Criticality() bool { return c.criticality }

func (c *PagingControl) encode() *ber.Packet {
	value := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Paged Results Control Value")
	value.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, int64(c.Size), "Page Size"))
	value.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(c.Cookie), "Cookie"))
	return encodeControl(c.OID(), c.criticality, value.Bytes(), true)
}

// findPagingControl returns the decoded PagingControl among controls, if
// the server sent one back.
func findPagingControl(controls []Control) (*PagingControl, error) {
	for _, c := range controls {
		if c.OID() != OIDPagedResults {
			continue
		}
		gc, ok := c.(*GenericControl)
		if !ok {
			continue
		}
		p := ber.DecodePacket(gc.Value)
		if p == nil || len(p.Children) < 2 {
			return nil, newError(KindProtocolDecode, "malformed paged results control value")
		}
		size, _ := p.Children[0].Value.(int64)
		return &PagingControl{Size: uint32(size), Cookie: p.Children[1].Data.Bytes()}, nil
	}
	return nil, nil
}
