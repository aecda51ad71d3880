package ldap

import (
	ber "github.com/go-asn1-ber/asn1-ber"
)

// SearchRequest mirrors RFC 4511 section 4.5.1. TypesOnly is derived from
// ReturnAttributeValues at encode time (true means "don't send values").
type SearchRequest struct {
	BaseDN                 string
	Scope                  int
	DerefAliases           int
	SizeLimit              int
	TimeLimit              int
	ReturnAttributeValues  bool
	Filter                 Filter
	Attributes             []string
	Control                []Control
	// Paged requests that Search page results with the RFC 2696
	// Paged-Results control, fetching further pages automatically until
	// the server returns an empty cookie. When false, Search performs a
	// single unpaged request.
	Paged bool
	// ExplicitBufferAttributes names attributes whose raw byte values
	// should remain accessible via (*SearchResultEntry).Raw, in
	// addition to the default string decoding.
	ExplicitBufferAttributes []string
}

func (r *SearchRequest) protocolOp() int     { return ApplicationSearchRequest }
func (r *SearchRequest) controls() []Control { return r.Control }

func (r *SearchRequest) encodeBody() *ber.Packet {
	p := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationSearchRequest, nil, "Search Request")
	p.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.BaseDN, "BaseDN"))
	p.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, int64(r.Scope), "Scope"))
	p.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, int64(r.DerefAliases), "DerefAliases"))
	p.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, int64(r.SizeLimit), "SizeLimit"))
	p.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, int64(r.TimeLimit), "TimeLimit"))
	p.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, !r.ReturnAttributeValues, "TypesOnly"))

	filter := r.Filter
	if filter == nil {
		filter = &FilterPresent{Attribute: "objectClass"}
	}
	p.AppendChild(filter.encode())

	attrs := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Attributes")
	for _, a := range r.Attributes {
		attrs.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, a, "Attribute"))
	}
	p.AppendChild(attrs)
	return p
}

// SearchResultEntry is one entry found by a search, RFC 4511 section
// 4.5.2. Attributes decodes every value as text; Raw retains the
// original bytes for attributes the caller listed in
// ExplicitBufferAttributes.
type SearchResultEntry struct {
	DN         string
	Attributes map[string][]string
	raw        map[string][][]byte
}

// Raw returns the undecoded byte values for attr, if the search request
// that produced this entry listed attr in ExplicitBufferAttributes.
func (e *SearchResultEntry) Raw(attr string) [][]byte {
	return e.raw[attr]
}

func decodeSearchResultEntry(e *envelope, bufferAttrs map[string]bool) (*SearchResultEntry, error) {
	if len(e.body.Children) < 2 {
		return nil, newError(KindProtocolDecode, "malformed SearchResultEntry")
	}
	entry := &SearchResultEntry{
		DN:         string(e.body.Children[0].Data.Bytes()),
		Attributes: make(map[string][]string),
	}
	for _, attrPacket := range e.body.Children[1].Children {
		if len(attrPacket.Children) < 2 {
			continue
		}
		name := string(attrPacket.Children[0].Data.Bytes())
		values := make([]string, 0, len(attrPacket.Children[1].Children))
		var rawValues [][]byte
		for _, v := range attrPacket.Children[1].Children {
			b := v.Data.Bytes()
			values = append(values, string(b))
			rawValues = append(rawValues, b)
		}
		entry.Attributes[name] = values
		if bufferAttrs[name] {
			if entry.raw == nil {
				entry.raw = make(map[string][][]byte)
			}
			entry.raw[name] = rawValues
		}
	}
	return entry, nil
}

// SearchResultReference carries continuation referral URIs, RFC 4511
// section 4.5.3.
type SearchResultReference struct {
	URIs []string
}

func decodeSearchResultReference(e *envelope) (*SearchResultReference, error) {
	ref := &SearchResultReference{}
	for _, c := range e.body.Children {
		ref.URIs = append(ref.URIs, string(c.Data.Bytes()))
	}
	return ref, nil
}

// SearchResponse is the terminal SearchResultDone, with the accumulated
// entries/references the Client gathered across the whole operation
// (and, when paging, across every page).
type SearchResponse struct {
	Message
	resultResponse
	Entries    []*SearchResultEntry
	References []*SearchResultReference
}

func decodeSearchDoneResponse(e *envelope) (*SearchResponse, error) {
	r, err := decodeResultResponse(e.body)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{
		Message:        Message{MessageID: e.messageID, Controls: e.controls, protocolOp: e.protocolOp},
		resultResponse: *r,
	}, nil
}
