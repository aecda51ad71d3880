package ldap

import (
	"bytes"
	"io"
	"testing"
)

func TestMessageParserNext(t *testing.T) {
	env := encodeRequest(1, &UnbindRequest{})
	buf := bytes.NewBuffer(env.Bytes())

	p := newMessageParser(buf)
	e, err := p.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if e.messageID != 1 {
		t.Errorf("messageID = %d, want 1", e.messageID)
	}
	if e.protocolOp != ApplicationUnbindRequest {
		t.Errorf("protocolOp = %d, want %d", e.protocolOp, ApplicationUnbindRequest)
	}
}

func TestMessageParserNextEOF(t *testing.T) {
	p := newMessageParser(bytes.NewReader(nil))
	if _, err := p.next(); err != io.EOF {
		t.Errorf("next() error = %v, want io.EOF", err)
	}
}

func TestMessageParserNextTwoMessages(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeRequest(1, &UnbindRequest{}).Bytes())
	buf.Write(encodeRequest(2, &UnbindRequest{}).Bytes())

	p := newMessageParser(&buf)
	for _, wantID := range []int64{1, 2} {
		e, err := p.next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if e.messageID != wantID {
			t.Errorf("messageID = %d, want %d", e.messageID, wantID)
		}
	}
}
