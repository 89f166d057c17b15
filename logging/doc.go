// Package logging provides a minimal logging interface and adapters for bleater.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that adapters, tools, personas and the fleet use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (tests, library defaults)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.Config{Level: logging.LevelDebug, Format: "text"})
//	persona := agent.NewPersona("Barb", "tech journalist", client, func(o *agent.Options) { o.Logger = logger })
//
// Messages are short dotted event names ("persona.round.start") followed by
// key/value pairs, so any structured backend can index them.
package logging
