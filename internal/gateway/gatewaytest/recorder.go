// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package gatewaytest provides an in-memory [gateway.Caller] for testing the
// backend-call wrappers.
package gatewaytest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/taibuivan/tenantx/internal/gateway"
)

// Reply is a canned answer: Body is JSON-encoded into the caller's out value.
// Before, when set, runs first, as if it happened while the call was in flight.
type Reply struct {
	Body   any
	Err    error
	Before func()
}

// Recorder records every request and answers from a route table keyed by
// "METHOD /path". Unknown routes answer with an empty body.
type Recorder struct {
	mu       sync.Mutex
	routes   map[string]Reply
	requests []gateway.Request
}

// NewRecorder returns an empty [Recorder].
func NewRecorder() *Recorder {
	return &Recorder{routes: make(map[string]Reply)}
}

// On registers the reply for method and path.
func (r *Recorder) On(method, path string, reply Reply) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[method+" "+path] = reply
	return r
}

// Do implements [gateway.Caller].
func (r *Recorder) Do(_ context.Context, req gateway.Request, out any) error {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	reply := r.routes[req.Method+" "+req.Path]
	r.mu.Unlock()

	if reply.Before != nil {
		reply.Before()
	}
	if reply.Err != nil {
		return reply.Err
	}
	if out == nil || reply.Body == nil {
		return nil
	}

	payload, err := json.Marshal(reply.Body)
	if err != nil {
		return fmt.Errorf("gatewaytest: encode reply: %w", err)
	}
	return json.Unmarshal(payload, out)
}

// Requests returns a copy of the recorded requests in call order.
func (r *Recorder) Requests() []gateway.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gateway.Request(nil), r.requests...)
}

// Last returns the most recent request. It panics when nothing was recorded.
func (r *Recorder) Last() gateway.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

// Count returns how many requests were recorded.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// BodyJSON re-encodes a request body to a generic map for assertions.
func BodyJSON(req gateway.Request) map[string]any {
	if req.Body == nil {
		return nil
	}
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil
	}
	return decoded
}
