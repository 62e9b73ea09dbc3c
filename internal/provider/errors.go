package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind classifies why the cloud backend could not be bound.
type ErrorKind int

const (
	CredentialsMissing ErrorKind = iota + 1
	NetworkUnreachable
	ProbeFailed
)

func (k ErrorKind) String() string {
	switch k {
	case CredentialsMissing:
		return "credentials_missing"
	case NetworkUnreachable:
		return "network_unreachable"
	case ProbeFailed:
		return "probe_failed"
	default:
		return "unknown"
	}
}

// ProviderError reports a failed cloud binding.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider unavailable (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// classifyProbeError maps a probe failure to NetworkUnreachable when the
// request never reached the service, and ProbeFailed otherwise.
func classifyProbeError(err error) ErrorKind {
	if errors.Is(err, context.Canceled) {
		return ProbeFailed
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NetworkUnreachable
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return NetworkUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NetworkUnreachable
	}
	return ProbeFailed
}
