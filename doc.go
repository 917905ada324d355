package bindkit

// Package bindkit provides:
//
// - A streaming producer/consumer protocol (Sink, Factory, Producer) that converts between Go values without an intermediate tree
// - A Registry keyed by TypeDesc with fixed primitive slots, wildcard resolution and delegate registries
// - Location-qualified errors (UnsupportedTypeError, UnknownKeyError) projected onto Issues (JSON Pointer, code, message)
// - Duplicate-key and depth enforcement via Enforce
//
// Design policy:
// - Keep only the protocol in the root package; put helpers under internal/.
// - Place the JSON5 parser under json5/, struct adapters under record/, composite Go types under collection/,
//   ready-made codecs under codec/, other formats under source/ and sink/, and the CLI under cmd/bindkit.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  b := bindkit.NewBuilder()
//  personRecord.Register(b)
//  reg := b.MustBuild()
//
//  p, err := json5.BindString[Person](reg, `{name: 'Ann', age: 41}`, json5.Options{})
//  wide, err := bindkit.Transform[[]int64](reg, []int32{0, 1, 2, 3})
