// Package writers serializes a finished annotation.
//
// Formats register themselves by name; the CLI looks them up with Lookup.
// JSON and JSONL go through pkg/api (v1) for a stable wire format. The
// sqlite format writes to a file path rather than a stream.
package writers
