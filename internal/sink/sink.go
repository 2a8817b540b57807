// Package sink delivers finished records to their destination. Every sink
// follows the same lifecycle: EnsureSchema once after configuration load,
// Append any number of times, Close at the end of the run.
package sink

import (
	"context"

	"github.com/verdantlabs/florasynth/pkg/modules"
)

// Sink receives the output schema once and then rows for valid records.
// Implementations must tolerate Append before any rows exist and must write
// the provenance documentation table alongside the data.
type Sink interface {
	// EnsureSchema prepares the destination for the given schema: headers,
	// documentation table, any remote resources. Called exactly once before
	// the first Append.
	EnsureSchema(ctx context.Context, schema *modules.Schema) error

	// Append writes one record as a row in schema order.
	Append(ctx context.Context, record *modules.Record) error

	// Close flushes and releases the destination.
	Close() error
}
