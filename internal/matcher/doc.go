// Package matcher routes free-text input to canned responses.
//
// Engine runs the pipeline: validate, normalize, exact check, candidate
// retrieval, ensemble scoring. Guard wraps any Matcher with a persistent
// circuit breaker and a per-call timeout race, substituting a cheap
// containment fallback when the breaker is open or the timeout fires.
package matcher
