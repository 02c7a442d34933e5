// Package record implements the self-delimiting wire format for ignitekv's
// two command variants, Set and Rm. The reference implementation this store
// is modeled on serializes each command with serde_json and decodes a
// stream of them with serde_json::Deserializer's byte_offset() to learn
// where each value ends. encoding/json.Decoder gives Go the identical
// property: Decode consumes exactly one JSON value per call with no
// external length prefix, and InputOffset reports how many bytes of the
// stream have been consumed so far — everything the replay loop in
// internal/engine needs to carve a segment into discrete records.
package record

import (
	"encoding/json"
	"fmt"
	"io"
)

// Kind distinguishes the two record variants.
type Kind string

const (
	// KindSet asserts that Key now has Value.
	KindSet Kind = "set"
	// KindRm asserts that Key is removed.
	KindRm Kind = "rm"
)

// wire is the on-disk JSON shape. Value is omitted for Rm records so a
// tombstone doesn't carry a phantom empty string across the wire.
type wire struct {
	Kind  Kind   `json:"kind"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Record is one Set or Rm command. The zero value is not meaningful; build
// one with Set or Rm.
type Record struct {
	kind  Kind
	key   string
	value string
}

// Set builds a Set(key, value) record.
func Set(key, value string) Record {
	return Record{kind: KindSet, key: key, value: value}
}

// Rm builds an Rm(key) record.
func Rm(key string) Record {
	return Record{kind: KindRm, key: key}
}

// IsSet reports whether r is a Set record.
func (r Record) IsSet() bool { return r.kind == KindSet }

// IsRm reports whether r is an Rm record.
func (r Record) IsRm() bool { return r.kind == KindRm }

// Key returns the record's key, for either variant.
func (r Record) Key() string { return r.key }

// Value returns the record's value. It is only meaningful for Set records;
// Rm records always return the empty string.
func (r Record) Value() string { return r.value }

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Kind: r.kind, Key: r.key, Value: r.value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case KindSet, KindRm:
		r.kind = w.Kind
	default:
		return fmt.Errorf("record: unrecognized kind %q", w.Kind)
	}
	r.key = w.Key
	r.value = w.Value
	return nil
}

// Marshal serializes rec to its on-disk byte representation.
func Marshal(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// Unmarshal decodes exactly one record from data. It is used for
// random-access reads, where the caller already knows the record's exact
// byte length from an Index Location and has read precisely that many
// bytes.
func Unmarshal(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Decoder streams records out of a segment, reporting the absolute byte
// offset at which the next record begins after each successful Decode —
// the piece of information the replay loop needs to compute each record's
// length without an external length prefix.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r in a streaming record Decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Decode reads the next record from the stream. It returns io.EOF, exactly
// as returned by the underlying json.Decoder, when the stream ends cleanly
// between records — that is, zero bytes were consumed attempting to start
// a new one. Any other error means bytes were consumed for a record that
// did not fully decode: a malformed or truncated record.
func (d *Decoder) Decode() (Record, error) {
	var rec Record
	if err := d.dec.Decode(&rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// InputOffset reports the number of bytes of the underlying stream consumed
// so far — the absolute offset at which the next record begins.
func (d *Decoder) InputOffset() int64 {
	return d.dec.InputOffset()
}
