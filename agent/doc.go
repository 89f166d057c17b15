// Package agent implements persona agents: simulated users of the platform
// that act through a language model backend.
//
// A Persona moves through a small lifecycle:
//
//  1. Unbuilt: only a name and a character description exist
//  2. Built: the name is registered and identity-bound tools are frozen in a registry
//  3. SessionActive / SessionIdle: Run drives one session at a time
//
// Each session starts from a fresh history whose system message is rendered
// from the persona description, the recent feed and pending notifications.
// It then spends a fixed budget of rounds. In ModeFreeForm a round calls
// Backend.Converse and executes every proposed tool call in order. In
// ModeStructured a round calls Backend.Decide with model.ActionSchema and
// dispatches the single decided action through the tool of the same name.
//
// A failed round (backend error or schema violation) leaves no trace in the
// history and still consumes budget. Tool failures are fed back to the model
// as error tool messages.
package agent
