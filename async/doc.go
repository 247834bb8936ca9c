// Package async bridges goroutine-based producers and consumers onto the
// tallbag protocol. Asynchrony stays inside the parties: the protocol only
// sees calls arriving later in logical time, serialized by the engine.
package async
