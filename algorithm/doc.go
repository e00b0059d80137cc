// Package algorithm defines the capability contract every search backend
// must satisfy so the harness can drive them uniformly, plus a registry
// mapping backend kinds to constructors.
//
// A backend is a stateful instance bound to at most one built index:
// constructed with default hyperparameters, optionally tuned (mutating the
// hyperparameters), built, then queried. Rebuilding replaces the index.
package algorithm
