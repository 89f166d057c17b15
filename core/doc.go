// Package core provides the foundational domain types shared by every layer of
// bleater. It defines:
//
//   - Messages and tool calls (the literal transcript sent to model backends)
//   - Actions (the closed set of decisions a structured backend may emit)
//   - The error taxonomy used across adapters, tools, personas and the fleet
//   - Transcript validation for the ordering rules backends depend on
//
// The package has no dependencies on model vendors, the platform or the
// persona loop, so every other package can import it without cycles.
package core
