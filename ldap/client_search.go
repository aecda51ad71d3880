package ldap

import "time"

// Search runs a SearchRequest to completion and returns every entry and
// reference the server sent. When r.Paged is set, it pages the results
// with the RFC 2696 Paged-Results control, fetching as many pages as the
// server's support requires; otherwise it performs a single request.
// Callers must not attach their own PagingControl to r.Control; Search
// manages paging cookies itself and rejects the request if one is
// present.
func (c *Client) Search(r *SearchRequest) (*SearchResponse, error) {
	for _, ctrl := range r.Control {
		if ctrl.OID() == OIDPagedResults {
			return nil, newError(KindInvalidInput, "Search manages paging internally; do not supply a PagingControl")
		}
	}

	bufferAttrs := make(map[string]bool, len(r.ExplicitBufferAttributes))
	for _, a := range r.ExplicitBufferAttributes {
		bufferAttrs[a] = true
	}

	if !r.Paged {
		resp, err := c.searchOnePage(r, bufferAttrs)
		if err != nil {
			return nil, err
		}
		return resp, searchResultError(resp, r.SizeLimit)
	}

	pageSize := c.opts.pageSize()
	if c.opts.PageSize == 0 && r.SizeLimit > 1 {
		pageSize = uint32(r.SizeLimit - 1)
	}

	result := &SearchResponse{}
	var cookie []byte

	baseControls := r.Control
	for {
		page := *r
		page.Control = append(append([]Control{}, baseControls...), NewPagingControl(pageSize, cookie))

		resp, err := c.searchOnePage(&page, bufferAttrs)
		if err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, resp.Entries...)
		result.References = append(result.References, resp.References...)
		result.Message = resp.Message
		result.resultResponse = resp.resultResponse

		if err := searchResultError(resp, r.SizeLimit); err != nil {
			return result, err
		}

		next, err := findPagingControl(resp.Controls)
		if err != nil || next == nil || len(next.Cookie) == 0 {
			return result, nil
		}
		cookie = next.Cookie
	}
}

// searchResultError maps a page's terminal result code to an error, with
// one exception: sizeLimitExceeded against a client-specified SizeLimit
// is success, not failure — the server truncated the results exactly the
// way the caller asked it to.
func searchResultError(resp *SearchResponse, sizeLimit int) error {
	if resp.ResultCode == ResultSizeLimitExceeded && sizeLimit > 0 {
		return nil
	}
	return resp.asError()
}

func (c *Client) searchOnePage(r *SearchRequest, bufferAttrs map[string]bool) (*SearchResponse, error) {
	id := c.allocateMessageID()
	pr := c.register(id, true)
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

	resp := &SearchResponse{}
	for {
		select {
		case <-timeoutCh:
			err := newError(KindTimeout, "operation %d timed out after %s", id, timeout)
			c.shutdown(err)
			return nil, err
		case e, ok := <-pr.entries:
			if !ok {
				return nil, c.closedError()
			}
			switch e.protocolOp {
			case ApplicationSearchResultEntry:
				entry, err := decodeSearchResultEntry(e, bufferAttrs)
				if err != nil {
					return nil, err
				}
				resp.Entries = append(resp.Entries, entry)
			case ApplicationSearchResultReference:
				ref, err := decodeSearchResultReference(e)
				if err != nil {
					return nil, err
				}
				resp.References = append(resp.References, ref)
			}
		case e, ok := <-pr.done:
			if !ok {
				return nil, c.closedError()
			}
			// Drain any entries the dispatcher had already buffered
			// ahead of this terminal response before returning.
			draining := true
			for draining {
				select {
				case entryEnv, ok := <-pr.entries:
					if !ok {
						draining = false
						break
					}
					switch entryEnv.protocolOp {
					case ApplicationSearchResultEntry:
						entry, err := decodeSearchResultEntry(entryEnv, bufferAttrs)
						if err != nil {
							return nil, err
						}
						resp.Entries = append(resp.Entries, entry)
					case ApplicationSearchResultReference:
						ref, err := decodeSearchResultReference(entryEnv)
						if err != nil {
							return nil, err
						}
						resp.References = append(resp.References, ref)
					}
				default:
					draining = false
				}
			}
			done, err := decodeSearchDoneResponse(e)
			if err != nil {
				return nil, err
			}
			resp.Message = done.Message
			resp.resultResponse = done.resultResponse
			return resp, nil
		}
	}
}
