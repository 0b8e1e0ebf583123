// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered identifiers for request correlation.

Every outbound call and every BFF request carries an X-Request-ID generated
here. Version 7 values sort by creation time, so log lines from one client
stay ordered when grepped by ID.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
//
// When the entropy source fails it degrades to a random v4 value; a request ID
// is never worth failing a call over.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
