// Package kit holds transport-agnostic plumbing shared by Camply services:
// the Endpoint abstraction, request-scoped context values, and MCP tool
// registration.
package kit

import "context"

// Endpoint is a transport-agnostic request handler. HTTP handlers and MCP
// tools decode into a typed request and delegate to the same Endpoint.
type Endpoint func(ctx context.Context, req any) (any, error)
