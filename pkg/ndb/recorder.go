package ndb

import "time"

// Recorder receives decode activity. internal/metrics implements it.
type Recorder interface {
	PageRead(kind string)
	BlockRead(kind string)
	Lookup(tree string, found bool, d time.Duration)
	Corruption(cause string)
}

type nopRecorder struct{}

func (nopRecorder) PageRead(string)                    {}
func (nopRecorder) BlockRead(string)                   {}
func (nopRecorder) Lookup(string, bool, time.Duration) {}
func (nopRecorder) Corruption(string)                  {}

// NopRecorder discards everything
var NopRecorder Recorder = nopRecorder{}
