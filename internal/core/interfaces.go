// Package core defines the transport-facing contracts shared by the
// presence, call and room services.
package core

// Frame is a single encoded wire message.
type Frame []byte

// SignalConnection abstracts one live bidirectional transport session.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	// IsOpen reports whether the handle can still deliver frames. Callers
	// holding a looked-up record must re-check this before sending, since
	// records can go stale under concurrent disconnects.
	IsOpen() bool
	Close()
}
