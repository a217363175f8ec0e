package model

import (
	"fmt"

	"github.com/mobel/go-ibeacon-exporter/beacon"
)

// Result is the outcome of decoding one advertisement.
type Result struct {
	Frame  beacon.Frame
	Record beacon.Record
	Error  error
}

func (c Result) String() string {
	if c.Error != nil {
		return fmt.Sprintf("result:error(%v)", c.Error)
	} else {
		return fmt.Sprintf("result:success(%v)", c.Record)
	}
}

// Decoded reports whether the frame yielded a record.
func (c Result) Decoded() bool {
	return c.Error == nil
}
