package ldap

import (
	"crypto/tls"
	"time"
)

// spliceParkTimeout bounds how long StartTLS waits for the background
// reader to park before it gives up and fails the splice rather than
// hanging forever against a reader that never calls next() again.
const spliceParkTimeout = 5 * time.Second

// StartTLS upgrades a plaintext connection in place, RFC 4513 section 3.
// It sends the StartTLS extended request, then splices a TLS-wrapped
// connection onto the same underlying socket without losing the
// client's identity: socketID, the message id counter, and every
// pending request survive the swap untouched.
//
// The splice has to briefly steal the socket away from the background
// reader goroutine before it can hand it to the TLS handshake, since two
// goroutines reading the same net.Conn concurrently would race for the
// handshake bytes. It does that by setting an already-past read deadline,
// which makes the reader's in-flight (or next) Read fail immediately;
// readLoop recognizes that failure as a splice request rather than a
// real error and parks until the new parser is installed.
func (c *Client) StartTLS(tlsConfig *tls.Config) error {
	resp, err := c.Extended(&ExtendedRequest{Name: OIDStartTLS})
	if err != nil {
		return err
	}
	if err := resp.asError(); err != nil {
		return err
	}

	c.connMu.Lock()
	conn := c.conn
	parked := make(chan struct{})
	resume := make(chan struct{})
	c.splicing = true
	c.spliceParked = parked
	c.spliceResume = resume
	c.connMu.Unlock()

	conn.SetReadDeadline(time.Now())

	select {
	case <-parked:
	case <-time.After(spliceParkTimeout):
		c.connMu.Lock()
		c.splicing = false
		c.connMu.Unlock()
		return newError(KindTransport, "StartTLS: reader did not park in time")
	}

	conn.SetReadDeadline(time.Time{})

	if tlsConfig == nil {
		tlsConfig = c.opts.TLSConfig
	}
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	tlsConn := tls.Client(conn, tlsConfig)
	if err := tlsConn.Handshake(); err != nil {
		c.connMu.Lock()
		c.splicing = false
		c.connMu.Unlock()
		close(resume)
		return wrapError(KindTransport, err, "StartTLS handshake")
	}

	c.connMu.Lock()
	c.conn = tlsConn
	c.parser = newMessageParser(tlsConn)
	c.splicing = false
	c.connMu.Unlock()

	log.Debugf("StartTLS complete, socket %s now TLS", c.socketID)
	close(resume)
	return nil
}
