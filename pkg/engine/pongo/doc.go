// Package pongo implements the engine contract on top of pongo2, a
// Django-syntax template engine. Templates are compiled once per path and
// kept in the template set; forks share that set but keep their own
// assigned variables.
//
// Besides the pongo2 built-ins the engine registers three filters:
//
//	trim        strips surrounding whitespace
//	lowerfirst  lower-cases the first non-space rune
//	sanitize    applies an HTML user-content policy and marks the result safe
package pongo
