// Package sample is a small module used by the extractor tests.
package sample

import "strings"

// Greet returns a greeting for name.
//
// The greeting is always in English.
//
// Args:
//
//	name: who to greet
//	excited: append an exclamation mark
//
// Returns:
//
//	the greeting text
//
// Examples:
//
// Greeting a user
//
//	Greet("Ada", true)
func Greet(name string, excited bool) string {
	out := "Hello, " + strings.TrimSpace(name)
	if excited {
		out += "!"
	}
	return out
}

// Greeter prefixes every greeting.
type Greeter struct {
	prefix string
}

// NewGreeter builds a Greeter.
func NewGreeter(prefix string) *Greeter {
	return &Greeter{prefix: prefix}
}

// Say is a method and never described.
func (g *Greeter) Say(name string) string {
	return g.prefix + Greet(name, false)
}

func helper() string { return "" }
