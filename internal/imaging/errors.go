package imaging

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	// ErrDecode matches any *DecodeError.
	ErrDecode = errors.New("image decode failed")

	// ErrThresholdRange matches a *RangeError raised for a threshold value.
	ErrThresholdRange = errors.New("threshold out of range")
)

// DecodeError reports that an image could not be read or decoded.
//
// Path is empty when the image came from a stream rather than a file.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) true for every DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// RangeError reports an integer argument outside its inclusive [Min, Max] range.
type RangeError struct {
	Name  string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d outside range [%d,%d]", e.Name, e.Value, e.Min, e.Max)
}

// Is makes errors.Is(err, ErrThresholdRange) true for threshold range errors.
func (e *RangeError) Is(target error) bool {
	return target == ErrThresholdRange && e.Name == "threshold"
}

func checkThreshold(threshold int) error {
	if threshold < 0 || threshold > MaxIntensity {
		return &RangeError{Name: "threshold", Value: threshold, Min: 0, Max: MaxIntensity}
	}
	return nil
}
