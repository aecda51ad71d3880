package ldap

import (
	"net"
	"testing"
	"time"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// searchDoneEnvelope builds a SearchResultDone LDAPMessage, optionally
// carrying response controls (e.g. a PagingControl cookie).
func searchDoneEnvelope(messageID int64, resultCode int, controls []Control) *ber.Packet {
	body := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationSearchResultDone, nil, "SearchResultDone")
	body.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, int64(resultCode), "resultCode"))
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "", "matchedDN"))
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "", "diagnosticMessage"))

	envelope := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAPMessage")
	envelope.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, messageID, "messageID"))
	envelope.AppendChild(body)
	if c := encodeControls(controls); c != nil {
		envelope.AppendChild(c)
	}
	return envelope
}

func searchEntryEnvelope(messageID int64, dn string) *ber.Packet {
	body := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ApplicationSearchResultEntry, nil, "SearchResultEntry")
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, dn, "objectName"))
	body.AppendChild(ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "attributes"))

	envelope := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAPMessage")
	envelope.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, messageID, "messageID"))
	envelope.AppendChild(body)
	return envelope
}

func readSearchRequestID(t *testing.T, conn net.Conn) int64 {
	t.Helper()
	req, err := ber.ReadPacket(conn)
	if err != nil {
		t.Fatalf("read search request: %v", err)
	}
	return req.Children[0].Value.(int64)
}

func TestSearchSizeLimitExceededIsSuccess(t *testing.T) {
	c, server := newTestClient(t, ClientOptions{})
	defer server.Close()

	go func() {
		id := readSearchRequestID(t, server)
		writeEnvelope(t, server, searchEntryEnvelope(id, "cn=a,dc=example,dc=com"))
		writeEnvelope(t, server, searchDoneEnvelope(id, ResultSizeLimitExceeded, nil))
	}()

	resp, err := c.Search(&SearchRequest{BaseDN: "dc=example,dc=com", SizeLimit: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(resp.Entries))
	}
}

func TestSearchSizeLimitExceededWithoutSizeLimitIsError(t *testing.T) {
	c, server := newTestClient(t, ClientOptions{})
	defer server.Close()

	go func() {
		id := readSearchRequestID(t, server)
		writeEnvelope(t, server, searchDoneEnvelope(id, ResultSizeLimitExceeded, nil))
	}()

	_, err := c.Search(&SearchRequest{BaseDN: "dc=example,dc=com"})
	if !IsServerError(err, ResultSizeLimitExceeded) {
		t.Fatalf("err = %v, want ResultSizeLimitExceeded server error", err)
	}
}

func TestSearchUnpagedSendsNoPagingControl(t *testing.T) {
	c, server := newTestClient(t, ClientOptions{})
	defer server.Close()

	go func() {
		req, err := ber.ReadPacket(server)
		if err != nil {
			t.Error(err)
			return
		}
		id := req.Children[0].Value.(int64)
		if len(req.Children) > 2 {
			t.Errorf("unpaged search request carried controls: %#v", req.Children[2])
		}
		writeEnvelope(t, server, searchDoneEnvelope(id, ResultSuccess, nil))
	}()

	if _, err := c.Search(&SearchRequest{BaseDN: "dc=example,dc=com"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestSearchPagedDefaultsPageSizeTo100(t *testing.T) {
	c, server := newTestClient(t, ClientOptions{})
	defer server.Close()

	go func() {
		req, err := ber.ReadPacket(server)
		if err != nil {
			t.Error(err)
			return
		}
		id := req.Children[0].Value.(int64)
		controls, err := decodeControls(req.Children[2])
		if err != nil {
			t.Error(err)
			return
		}
		pc, err := findPagingControl(controls)
		if err != nil || pc == nil {
			t.Errorf("expected a paging control, got %v, %v", pc, err)
			return
		}
		if pc.Size != 100 {
			t.Errorf("page size = %d, want 100", pc.Size)
		}
		writeEnvelope(t, server, searchDoneEnvelope(id, ResultSuccess, nil))
	}()

	if _, err := c.Search(&SearchRequest{BaseDN: "dc=example,dc=com", Paged: true}); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestSearchPagedDerivesPageSizeFromSizeLimit(t *testing.T) {
	c, server := newTestClient(t, ClientOptions{})
	defer server.Close()

	go func() {
		req, err := ber.ReadPacket(server)
		if err != nil {
			t.Error(err)
			return
		}
		id := req.Children[0].Value.(int64)
		controls, err := decodeControls(req.Children[2])
		if err != nil {
			t.Error(err)
			return
		}
		pc, err := findPagingControl(controls)
		if err != nil || pc == nil {
			t.Errorf("expected a paging control, got %v, %v", pc, err)
			return
		}
		if pc.Size != 9 {
			t.Errorf("page size = %d, want 9 (SizeLimit 10 - 1)", pc.Size)
		}
		writeEnvelope(t, server, searchDoneEnvelope(id, ResultSuccess, nil))
	}()

	if _, err := c.Search(&SearchRequest{BaseDN: "dc=example,dc=com", Paged: true, SizeLimit: 10}); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestSearchPagedFollowsCookieAcrossPages(t *testing.T) {
	c, server := newTestClient(t, ClientOptions{})
	defer server.Close()

	go func() {
		id := readSearchRequestID(t, server)
		writeEnvelope(t, server, searchEntryEnvelope(id, "cn=a,dc=example,dc=com"))
		writeEnvelope(t, server, searchDoneEnvelope(id, ResultSuccess, []Control{NewPagingControl(0, []byte("cookie-1"))}))

		id = readSearchRequestID(t, server)
		writeEnvelope(t, server, searchEntryEnvelope(id, "cn=b,dc=example,dc=com"))
		writeEnvelope(t, server, searchDoneEnvelope(id, ResultSuccess, []Control{NewPagingControl(0, nil)}))
	}()

	resp, err := c.Search(&SearchRequest{BaseDN: "dc=example,dc=com", Paged: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2 across both pages", len(resp.Entries))
	}
}

func TestSearchTimeoutEndsTheSocket(t *testing.T) {
	c, server := newTestClient(t, ClientOptions{Timeout: 20 * time.Millisecond})
	defer server.Close()

	go discardReads(server)

	_, err := c.Search(&SearchRequest{BaseDN: "dc=example,dc=com"})
	lerr, ok := err.(*Error)
	if !ok || lerr.Kind != KindTimeout {
		t.Fatalf("err = %v, want KindTimeout", err)
	}

	// The timed-out search must have torn the connection down: a second
	// operation on the same client observes it closed rather than hanging
	// or silently reusing a socket the server may still be streaming into.
	_, err = c.Search(&SearchRequest{BaseDN: "dc=example,dc=com"})
	if _, ok := err.(*Error); !ok {
		t.Fatalf("err after timeout = %v, want a *Error reporting the closed connection", err)
	}
}
