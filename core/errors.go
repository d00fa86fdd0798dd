// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDomain indicates a BatchContext without a domain.
	ErrEmptyDomain = errors.New("batch context domain cannot be empty")
)

// TransientError marks an infrastructure failure that is expected to clear
// on its own: network errors, timeouts, dropped connections, rate limits,
// server-side 5xx responses. Transient errors are retryable.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient infrastructure error: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// CapacityError marks a failure caused by the remote system being at
// capacity (overloaded, busy). Retryable, but with a lower attempt ceiling
// than TransientError since hammering an overloaded system makes it worse.
type CapacityError struct {
	Cause error
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: %v", e.Cause)
}

func (e *CapacityError) Unwrap() error { return e.Cause }

// ClientError marks a request that the remote system rejected as invalid
// (4xx, malformed input, syntax errors). Never retried.
type ClientError struct {
	Cause error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error: %v", e.Cause)
}

func (e *ClientError) Unwrap() error { return e.Cause }

// TimeoutError marks an operation that exceeded its deadline. Treated as
// transient for retry purposes: the underlying operation may have been slow
// rather than broken.
type TimeoutError struct {
	Cause error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out: %v", e.Cause)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// ResourceExhaustedError indicates local memory pressure above the
// configured threshold. Handled by shrinking future batches or blocking
// admission, never by failing the current item.
type ResourceExhaustedError struct {
	Usage     float64
	Threshold float64
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("resource exhausted: memory usage %.2f exceeds threshold %.2f",
		e.Usage, e.Threshold)
}

// IsTransient reports whether err is retryable as a transient
// infrastructure failure. Timeouts count as transient.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var to *TimeoutError
	return errors.As(err, &to)
}

// IsCapacity reports whether err is a capacity failure.
func IsCapacity(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}

// IsClient reports whether err is a non-retryable client error.
func IsClient(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsResourceExhausted reports whether err signals local memory pressure.
func IsResourceExhausted(err error) bool {
	var re *ResourceExhaustedError
	return errors.As(err, &re)
}

var (
	transientMarkers = []string{
		"network", "timeout", "timed out", "connection", "econnrefused",
		"econnreset", "rate limit", "too many requests", "429",
		"500", "502", "503", "504", "internal server error",
		"bad gateway", "service unavailable", "gateway timeout",
	}
	capacityMarkers = []string{"overloaded", "busy", "at capacity"}
	clientMarkers   = []string{
		"400", "401", "403", "404", "422", "invalid", "syntax",
		"bad request", "unauthorized", "forbidden", "not found",
	}
)

// Classify converts an untyped error into the taxonomy by inspecting its
// message. It is meant to be applied once, at the infrastructure boundary
// where driver and HTTP errors enter the engine; everything downstream
// dispatches on type. Errors that are already classified pass through
// unchanged, as do errors matching no known pattern.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || IsCapacity(err) || IsClient(err) || IsResourceExhausted(err) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, m := range capacityMarkers {
		if strings.Contains(msg, m) {
			return &CapacityError{Cause: err}
		}
	}
	for _, m := range clientMarkers {
		if strings.Contains(msg, m) {
			return &ClientError{Cause: err}
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return &TransientError{Cause: err}
		}
	}
	return err
}
