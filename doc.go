// Package tallbag owns the Tallbag wire contract and the reference handshake
// engine.
//
// A Tallbag is a single callable shape used for both roles of a connection:
// a source receives START and hands DATA/END to the sink it was started with,
// and a sink receives DATA/END and may call back with DATA (pull) or END
// (cancel). Operators are built by stacking Tallbags.
//
// Ownership boundary:
// - message kinds, including the reserved extension space (3..9)
// - message and callable shapes
// - connection state machine and handshake engine
// - metadata channel gating
//
// Handshake variants:
//
// Push is the default: the source begins sending DATA as soon as it is
// started. A source may instead reply to START with its own START carrying a
// control handle; DATA sent on that handle requests the next value and END on
// it cancels. Connect normalizes both so a sink always observes exactly one
// START, carrying a handle, before any DATA or END.
//
// Re-entrancy:
//
// Connect never calls its sink re-entrantly. A call that arrives while the
// sink is running is queued and delivered after the running call returns, so
// synchronous pull loops do not grow the stack. Reference sources in this
// module tolerate END arriving from inside their own DATA call.
package tallbag
