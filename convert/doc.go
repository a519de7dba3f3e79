// Package convert drives one conversion: load every requested variable from
// a Source, expand its blocks, optionally stride or resample them, and hand
// the result to a Sink.
package convert
