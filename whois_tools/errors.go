package whois_tools

import (
	"fmt"
	"strings"
)

// ConnectionError is returned when no TCP session could be established with
// a server on either the primary or the fallback port.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("unable to connect to %s: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// WriteError is returned when the query line could not be sent.
type WriteError struct {
	Server string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s failed: %v", e.Server, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError is returned when the response could not be read to completion.
type ReadError struct {
	Server string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read from %s failed: %v", e.Server, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// TimeoutError is returned when a network step ran past its deadline.
type TimeoutError struct {
	Server string
	Op     string // connect, write or read
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s to %s timed out", e.Op, e.Server)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// AmbiguousResponseError is returned by authoritative mode when the registrar
// database answer does not name the registrar's server.
type AmbiguousResponseError struct {
	Query  string
	Reason string
}

func (e *AmbiguousResponseError) Error() string {
	return fmt.Sprintf("cannot single out a record for '%s': %s", e.Query, e.Reason)
}

// ReferralLoopError is returned when a referral points back to a server that
// was already queried in the same chain.
type ReferralLoopError struct {
	Chain []string
}

func (e *ReferralLoopError) Error() string {
	return "referral loop: " + strings.Join(e.Chain, " -> ")
}

// TooManyHopsError is returned when a referral chain is longer than allowed.
type TooManyHopsError struct {
	Max   int
	Chain []string
}

func (e *TooManyHopsError) Error() string {
	return fmt.Sprintf("referral chain exceeds %d hops: %s", e.Max, strings.Join(e.Chain, " -> "))
}
