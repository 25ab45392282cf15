// Package provider defines the boundary between a compiled plan and
// whatever executes it: the Provider interface, the wire form a Plan
// crosses that boundary in, and (in package provider/fixture) an
// in-memory implementation for tests and the CLI demo.
package provider

import (
	"context"

	"github.com/kestrelquery/queryable/expr"
)

// Record is a single result row: a map from projection alias to scalar
// value (§6).
type Record map[string]expr.Scalar

// QueryResult is what arrives on QueryAsync's channel: either an
// ordered batch of records, or a terminal error. Exactly one non-zero
// field is set.
type QueryResult struct {
	Records []Record
	Err     error
}

// FirstResult is what arrives on FirstAsync's channel. Record is nil
// when the provider found no matching row.
type FirstResult struct {
	Record *Record
	Err    error
}

// Provider is the data-provider interface injected into a Context
// (§6). Plan metadata is the plan's serialized wire form — opaque to
// the core, meaningful only to the provider.
type Provider interface {
	// QueryAsync runs planMetadata and streams back a single
	// QueryResult on the returned channel. The channel always receives
	// exactly one value and is then closed; ctx cancellation surfaces
	// as a ProviderFailure-wrapped context error.
	QueryAsync(ctx context.Context, planMetadata []byte) <-chan QueryResult

	// FirstAsync runs planMetadata expecting at most one row.
	FirstAsync(ctx context.Context, planMetadata []byte) <-chan FirstResult
}
