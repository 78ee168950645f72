// Package api defines the public types of the hfsm runtime: states and
// substates, the transition sum type, the engine interface, trace events,
// observers, and the error values the engine reports.
//
// Most users import the root hfsm package, which re-exports everything here
// and adds the fluent state builder and engine constructors.
package api
