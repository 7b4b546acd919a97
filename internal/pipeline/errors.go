package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyInput means the text contained nothing to synthesize after
// trimming and chunking.
var ErrEmptyInput = errors.New("nothing to convert")

// InputTooLongError means the total text exceeded the job ceiling.
// Detected before any resource is acquired.
type InputTooLongError struct {
	Length int
	Limit  int
}

func (e *InputTooLongError) Error() string {
	return fmt.Sprintf("input length %d exceeds ceiling %d", e.Length, e.Limit)
}

// SynthesisError means the synthesis backend failed on one chunk.
// The whole job aborts on the first occurrence.
type SynthesisError struct {
	Chunk int // 1-based index of the failed chunk
	Total int
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed on chunk %d/%d: %v", e.Chunk, e.Total, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// OutputTooLargeError means the assembled artifact exceeded the delivery
// ceiling after the speed transform and final encoding.
type OutputTooLargeError struct {
	SizeMB  float64
	LimitMB int
}

func (e *OutputTooLargeError) Error() string {
	return fmt.Sprintf("assembled audio is %.2f MB, delivery limit is %d MB", e.SizeMB, e.LimitMB)
}

// DeliveryError means the final artifact could not be sent.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering voice clip: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
