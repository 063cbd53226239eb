// Package command holds the minimal motion-program model consumed by the
// bundled planning tasks: waypoints, move and wait instructions, composite
// programs, and named motion profiles.
//
// The orchestration engine itself never inspects these types; a program
// travels through the execution context as an opaque value addressed by a
// context key. Hosts with their own program representation can ignore this
// package entirely.
package command
