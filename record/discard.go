package record

import "github.com/reoring/bindkit"

// Discard returns a Sink that accepts and drops any value.
func Discard() bindkit.Sink { return discard{} }

type discard struct{}

func (discard) Scalar(bindkit.Scalar) error         { return nil }
func (discard) Value(any) error                     { return nil }
func (discard) Object() (bindkit.ObjectSink, error) { return discard{}, nil }
func (discard) Array() (bindkit.ArraySink, error)   { return discard{}, nil }
func (discard) Put(string) (bindkit.Sink, error)    { return discard{}, nil }
func (discard) Add() (bindkit.Sink, error)          { return discard{}, nil }
func (discard) End() error                          { return nil }
