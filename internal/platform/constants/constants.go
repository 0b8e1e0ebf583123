// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire client.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the BFF server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Session: persisted key names and verification cadence.
  - Backend Routes: paths of the TenantX API consumed by the gateway.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "tenantx"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 35 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Session

const (
	// DefaultVerifyInterval is the period of background identity verification.
	DefaultVerifyInterval = 5 * time.Minute

	// DefaultHTTPTimeout bounds every outbound call to the backend.
	DefaultHTTPTimeout = 30 * time.Second

	// AccessTokenCookieName is the browser cookie the BFF reads a bearer token from.
	AccessTokenCookieName = "accessToken"
)

// Persisted session keys. Each is a flat string entry in the kv backend.
const (
	KeyAccessToken              = "accessToken"
	KeyRefreshToken             = "refreshToken"
	KeyUserID                   = "userId"
	KeyOrganizationID           = "organizationId"
	KeyRole                     = "role"
	KeySelectedOrganizationID   = "selectedOrganizationId"
	KeySelectedOrganizationName = "selectedOrganizationName"
)

// SessionKeys lists every persisted key owned by the session store.
var SessionKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyUserID,
	KeyOrganizationID,
	KeyRole,
	KeySelectedOrganizationID,
	KeySelectedOrganizationName,
}

// # Backend Routes

const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathVerifyOTP      = "/auth/verify-otp"
	PathResendOTP      = "/auth/resend-otp"
	PathLogout         = "/auth/logout"
	PathRefresh        = "/auth/refresh"
	PathMe             = "/auth/me"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"

	PathOrganizations = "/organizations"
	PathProjects      = "/projects"
	PathTasks         = "/tasks"
)

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldError     = "error"
	FieldCode      = "code"
	FieldStatus    = "status"
	FieldApp       = "app"
	FieldVersion   = "version"
	FieldChecks    = "checks"
	FieldMessage   = "message"
	FieldTimestamp = "timestamp"
	FieldBackend   = "backend"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession = "tenantx:session:"
)

// # Input Rules

const (
	MinPasswordLength = 6
	OTPLength         = 6
	MaxNameLength     = 100
	MaxTitleLength    = 200
)
