// Package source provides reference sources for the tallbag protocol.
//
// Push sources (FromSlice, FromFunc, Empty, Fail, Never) begin delivering as
// soon as they are started and do not reply with a handle; the sink stops
// them by sending END to the source itself. Each value they return is single
// use and guarded. Iterate is the pull variant: it replies to START with a
// handle and delivers one value per DATA received on it.
package source
