// Package duallinkerr implements the error taxonomy from spec §7 as typed
// Go errors, grounded on original_source/linux-receiver/crates/duallink-core/src/errors.rs
// but expressed the way Go errors are expressed: small exported types
// implementing error, wrapped with fmt.Errorf("...: %w", err) the way the
// teacher repo wraps errors throughout scrcpy_session.go and adb/device.go.
// The closed sub-variants are string-typed Reason constants carried on
// DecoderError and TransportError, matched via errors.As and a comparison
// of Reason; they are not error values themselves.
package duallinkerr

import "fmt"

// Kind is the top-level taxonomy tag.
type Kind string

const (
	KindNotImplemented       Kind = "not_implemented"
	KindConfigurationInvalid Kind = "configuration_invalid"
	KindPermissionDenied     Kind = "permission_denied"
	KindConnectionFailed     Kind = "connection_failed"
	KindStreamError          Kind = "stream_error"
	KindDecoder              Kind = "decoder"
	KindTransport            Kind = "transport"
)

// Error is the general DualLinkError: a Kind plus a free-text reason.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("duallink: %s: %s", e.Kind, e.Reason)
}

// New constructs a general Error.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// DecoderReason is the closed sub-variant set for decoder errors.
type DecoderReason string

const (
	DecoderHardwareUnavailable DecoderReason = "hardware_unavailable"
	DecoderPipelineError       DecoderReason = "pipeline_error"
	DecoderDecodeFailed        DecoderReason = "decode_failed"
	DecoderNotInitialized      DecoderReason = "not_initialized"
)

// DecoderError wraps a DecoderReason with a free-text detail.
type DecoderError struct {
	Reason DecoderReason
	Detail string
}

func (e *DecoderError) Error() string {
	return fmt.Sprintf("duallink: decoder(%s): %s", e.Reason, e.Detail)
}

// NewDecoderError constructs a DecoderError.
func NewDecoderError(reason DecoderReason, detail string) *DecoderError {
	return &DecoderError{Reason: reason, Detail: detail}
}

// TransportReason is the closed sub-variant set for transport errors.
type TransportReason string

const (
	TransportConnectionClosed TransportReason = "connection_closed"
	TransportSendFailed       TransportReason = "send_failed"
	TransportReceiveFailed    TransportReason = "receive_failed"
	TransportTimeout          TransportReason = "timeout"
)

// TransportError wraps a TransportReason with a free-text detail.
type TransportError struct {
	Reason TransportReason
	Detail string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("duallink: transport(%s): %s", e.Reason, e.Detail)
}

// NewTransportError constructs a TransportError.
func NewTransportError(reason TransportReason, detail string) *TransportError {
	return &TransportError{Reason: reason, Detail: detail}
}
