// Package resolver walks the ordered provider chain for one video identity
// and returns the first acceptable subtitle candidate.
//
// The chain is an explicit list of steps built from the configured provider
// order: a hash step for every provider that indexes content hashes (when the
// video has a hash), followed by that provider's name step. Steps run
// strictly in order; the first step whose top-ranked candidate clears the
// step's threshold ends the chain. Provider failures are logged and recorded
// on the outcome but never escalate past the resolver.
package resolver
