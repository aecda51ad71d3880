// Copyright 2024 nexusdir
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ldap

import (
	"crypto/tls"
	"net"
	"net/url"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
)

// maxMessageID is the largest message id this client will hand out
// before wrapping back around to 1. RFC 4511 section 4.1.1 allows the
// full INTEGER range, but every known server implementation treats
// message ids as 31-bit non-negative values, so this client stays
// inside that envelope rather than spec-maximizing it.
const maxMessageID = 1<<31 - 1

// pendingRequest is the Pending Request Table entry for one in-flight
// message id. search is true for operations that receive more than one
// response envelope (SearchResultEntry/Reference before the terminal
// SearchResultDone); for those, entries and references both arrive on
// entries and the SearchResultDone envelope arrives on done. shutdown
// closes both channels to signal a lost connection.
type pendingRequest struct {
	done    chan *envelope
	search  bool
	entries chan *envelope
}

// Client is a single connection to an LDAP server. It multiplexes many
// concurrent operations over one socket by correlating responses to
// requests through their message id, the same way a single-threaded
// event-loop client would, but with goroutines and channels standing in
// for callbacks and promises.
type Client struct {
	opts ClientOptions

	connMu sync.Mutex
	conn   net.Conn
	parser *messageParser

	// socketID survives a StartTLS splice: the splice swaps conn and
	// parser in place but keeps the same id, which is what lets
	// in-flight pending requests observe that their owning socket
	// never actually changed identity.
	socketID uuid.UUID

	writeMu sync.Mutex

	idMu   sync.Mutex
	nextID int64

	pendingMu sync.Mutex
	pending   map[int64]*pendingRequest
	closed    bool
	closeErr  error

	readDone chan struct{}

	// splicing/spliceParked/spliceResume coordinate a StartTLS splice
	// with readLoop; see client_tls.go.
	splicing     bool
	spliceParked chan struct{}
	spliceResume chan struct{}
}

// Dial opens a connection to addr, an "ldap://host:port" or
// "ldaps://host:port" URL, and starts the client's read loop. For
// ldaps:// URLs the TLS handshake happens before Dial returns.
func Dial(addr string, opts ClientOptions) (*Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, newError(KindInvalidInput, "invalid LDAP URL %q: %v", addr, err)
	}

	var network = "tcp"
	host := u.Host
	if host == "" {
		host = u.Opaque
	}

	dialer := &net.Dialer{Timeout: opts.connectTimeout()}

	var conn net.Conn
	switch u.Scheme {
	case "ldap", "":
		conn, err = dialer.Dial(network, host)
	case "ldaps":
		tlsConfig := opts.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		}
		conn, err = tls.DialWithDialer(dialer, network, host, tlsConfig)
	default:
		return nil, newError(KindInvalidInput, "unsupported LDAP URL scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, wrapError(KindTransport, err, "dial %s", addr)
	}

	c := &Client{
		opts:     opts,
		conn:     conn,
		parser:   newMessageParser(conn),
		socketID: uuid.NewV4(),
		nextID:   2, // RFC 4511 reserves message id 0; 1 is conventionally the implicit bind of id 1 in some server logs, so this client starts its own counter at 2
		pending:  make(map[int64]*pendingRequest),
		readDone: make(chan struct{}),
	}
	log.Debugf("dial %s: connected, socket %s", addr, c.socketID)
	go c.readLoop()
	return c, nil
}

func (c *Client) allocateMessageID() int64 {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	id := c.nextID
	c.nextID++
	if c.nextID > maxMessageID {
		c.nextID = 1
	}
	return id
}

func (c *Client) register(id int64, search bool) *pendingRequest {
	pr := &pendingRequest{done: make(chan *envelope, 1)}
	if search {
		pr.search = true
		pr.entries = make(chan *envelope, 16)
	}
	c.pendingMu.Lock()
	c.pending[id] = pr
	c.pendingMu.Unlock()
	return pr
}

func (c *Client) unregister(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// send writes the encoded request envelope to the connection. The
// underlying conn is swapped under connMu during a StartTLS splice, so
// every write takes a fresh snapshot rather than caching c.conn.
func (c *Client) send(id int64, r request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		return newError(KindTransport, "connection closed")
	}
	if t := c.opts.timeout(); t > 0 {
		conn.SetWriteDeadline(time.Now().Add(t))
	}
	_, err := conn.Write(encodeRequest(id, r).Bytes())
	if err != nil {
		return wrapError(KindTransport, err, "write request")
	}
	return nil
}

// readLoop is the client's single reader. It owns parser.next() calls
// exclusively so a StartTLS splice can safely swap the parser out from
// under it only at a point where no read is in flight (see
// startTLSSplice in client_tls.go).
func (c *Client) readLoop() {
	defer close(c.readDone)
	for {
		c.connMu.Lock()
		p := c.parser
		c.connMu.Unlock()

		e, err := p.next()
		if err != nil {
			if c.parkForSplice(err) {
				continue
			}
			c.shutdown(wrapError(KindTransport, err, "read"))
			return
		}
		c.dispatch(e)
	}
}

// parkForSplice recognizes the read-deadline interruption a StartTLS
// splice uses to steal the socket away from the background reader. If a
// splice is in progress it parks until the splice hands the socket back
// with a fresh parser, and reports true so readLoop retries instead of
// tearing the connection down. Any other error, or a timeout with no
// splice underway, is reported false and left for the caller to treat
// as fatal.
func (c *Client) parkForSplice(err error) bool {
	ne, ok := err.(net.Error)
	if !ok || !ne.Timeout() {
		return false
	}
	c.connMu.Lock()
	if !c.splicing {
		c.connMu.Unlock()
		return false
	}
	parked, resume := c.spliceParked, c.spliceResume
	c.connMu.Unlock()

	close(parked)
	<-resume
	return true
}

func (c *Client) dispatch(e *envelope) {
	c.pendingMu.Lock()
	pr, ok := c.pending[e.messageID]
	c.pendingMu.Unlock()
	if !ok {
		log.Warningf("response for unknown message id %d (op %s)", e.messageID, applicationOpName(e.protocolOp))
		return
	}

	if pr.search {
		switch e.protocolOp {
		case ApplicationSearchResultDone:
			pr.done <- e
		default:
			pr.entries <- e
		}
		return
	}
	pr.done <- e
}

// shutdown tears the connection down and rejects every pending request
// with cause. Unbind never registers a pending entry (it has no response
// by protocol definition), so the close that follows it is not reported
// to the Unbind caller as a failure.
func (c *Client) shutdown(cause error) {
	c.pendingMu.Lock()
	if c.closed {
		c.pendingMu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = cause
	pending := c.pending
	c.pending = make(map[int64]*pendingRequest)
	c.pendingMu.Unlock()

	for _, pr := range pending {
		if pr.search {
			close(pr.entries)
		}
		close(pr.done)
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Close terminates the connection without sending an Unbind. Most
// callers should use Unbind instead, which notifies the server first.
func (c *Client) Close() error {
	c.shutdown(newError(KindTransport, "closed by caller"))
	<-c.readDone
	return nil
}

// Bind performs a BindRequest and returns an error if the server did not
// report success.
func (c *Client) Bind(r *BindRequest) (*BindResponse, error) {
	e, err := c.roundTrip(r, false)
	if err != nil {
		return nil, err
	}
	resp, err := decodeBindResponse(e)
	if err != nil {
		return nil, err
	}
	if err := resp.asError(); err != nil {
		return resp, err
	}
	return resp, nil
}

// Add performs an AddRequest.
func (c *Client) Add(r *AddRequest) (*AddResponse, error) {
	e, err := c.roundTrip(r, false)
	if err != nil {
		return nil, err
	}
	resp, err := decodeAddResponse(e)
	if err != nil {
		return nil, err
	}
	return resp, resp.asError()
}

// Modify performs a ModifyRequest.
func (c *Client) Modify(r *ModifyRequest) (*ModifyResponse, error) {
	e, err := c.roundTrip(r, false)
	if err != nil {
		return nil, err
	}
	resp, err := decodeModifyResponse(e)
	if err != nil {
		return nil, err
	}
	return resp, resp.asError()
}

// ModifyDN performs a ModifyDNRequest.
func (c *Client) ModifyDN(r *ModifyDNRequest) (*ModifyDNResponse, error) {
	e, err := c.roundTrip(r, false)
	if err != nil {
		return nil, err
	}
	resp, err := decodeModifyDNResponse(e)
	if err != nil {
		return nil, err
	}
	return resp, resp.asError()
}

// Delete performs a DeleteRequest.
func (c *Client) Delete(r *DeleteRequest) (*DeleteResponse, error) {
	e, err := c.roundTrip(r, false)
	if err != nil {
		return nil, err
	}
	resp, err := decodeDeleteResponse(e)
	if err != nil {
		return nil, err
	}
	return resp, resp.asError()
}

// Compare performs a CompareRequest. Unlike the other operations,
// ResultCompareFalse is not an error: it is a normal "no" answer,
// surfaced through CompareResponse.Matched rather than a returned error.
func (c *Client) Compare(r *CompareRequest) (*CompareResponse, error) {
	e, err := c.roundTrip(r, false)
	if err != nil {
		return nil, err
	}
	resp, err := decodeCompareResponse(e)
	if err != nil {
		return nil, err
	}
	if resp.ResultCode != ResultCompareTrue && resp.ResultCode != ResultCompareFalse {
		return resp, resp.asError()
	}
	return resp, nil
}

// Extended performs a generic ExtendedRequest.
func (c *Client) Extended(r *ExtendedRequest) (*ExtendedResponse, error) {
	e, err := c.roundTrip(r, false)
	if err != nil {
		return nil, err
	}
	resp, err := decodeExtendedResponse(e)
	if err != nil {
		return nil, err
	}
	return resp, resp.asError()
}

// Unbind sends an UnbindRequest and closes the connection. It never
// returns a protocol error: Unbind has no response by definition, so
// the only failures it can report are ones that happen before the
// request is even written.
func (c *Client) Unbind() error {
	id := c.allocateMessageID()
	err := c.send(id, &UnbindRequest{})
	c.shutdown(newError(KindTransport, "unbind"))
	<-c.readDone
	return err
}

// Abandon cancels the in-flight operation with messageID. It has no
// response; the abandoned request's caller will instead observe its own
// roundTrip call fail once the connection eventually closes, or once its
// per-request Timeout elapses if the server silently drops it, matching
// RFC 4511 section 4.11's "no response is defined" behavior.
func (c *Client) Abandon(messageID int64) error {
	id := c.allocateMessageID()
	return c.send(id, &AbandonRequest{MessageID: messageID})
}

// roundTrip sends r and waits for its single response envelope (or, for
// search is true, is not used — see client_search.go). It applies the
// client's configured per-request Timeout.
func (c *Client) roundTrip(r request, search bool) (*envelope, error) {
	id := c.allocateMessageID()
	pr := c.register(id, search)
	defer c.unregister(id)

	if err := c.send(id, r); err != nil {
		return nil, err
	}

	timeout := c.opts.timeout()
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case e, ok := <-pr.done:
		if !ok {
			return nil, c.closedError()
		}
		return e, nil
	case <-timeoutCh:
		// Abandoning the request isn't enough: the server may keep
		// writing to this socket regardless, so the connection itself
		// has to end rather than just this caller's wait for it.
		err := newError(KindTimeout, "operation %d timed out after %s", id, timeout)
		c.shutdown(err)
		return nil, err
	}
}

func (c *Client) closedError() error {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if c.closeErr != nil {
		return c.closeErr
	}
	return newError(KindTransport, "connection closed")
}
