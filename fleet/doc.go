// Package fleet drives a roster of personas through repeated sessions.
//
// A Fleet waits for the platform to become ready, builds every persona in
// declared order, then runs steps. In each step every persona runs one
// session, again in declared order, and step N+1 only starts once step N is
// complete. Personas whose build failed are skipped until a later build
// succeeds. Persona errors are logged and never stop the fleet; only context
// cancellation does.
package fleet
