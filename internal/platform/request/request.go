// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts body decoding and credential lookup so BFF handlers share the
same error handling.
*/
package requestutil

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/ctxutil"
	"github.com/taibuivan/tenantx/internal/platform/validate"
)

// maxBodyBytes caps the size of any JSON body accepted by the BFF.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

An empty body leaves target untouched and is not an error.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil && err != io.EOF {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
BearerToken returns the access token of the caller.

The Authorization header wins; the accessToken cookie is the fallback.
Returns an empty string when neither carries a token.
*/
func BearerToken(request *http.Request) string {
	if header := request.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}

	return ""
}

/*
RequiredBearer returns the token stored by the RequireBearer middleware.

Returns:
  - error: apperr.Unauthorized if the request carries no token
*/
func RequiredBearer(request *http.Request) (string, error) {
	token := ctxutil.GetBearerToken(request.Context())
	if token == "" {
		return "", apperr.Unauthorized("No access token")
	}
	return token, nil
}
