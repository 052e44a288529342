// Package audio decodes, loops and mixes ambient tracks.
//
// The [Selector] turns a file path into a [Source]. The [Engine] owns one [Output] and
// a set of per-track handles, applies the per-track × master volume model, and runs
// fade-outs from its Tick method. Engine methods are meant to be called from a single
// goroutine; only the output's own mixing goroutine crosses into handle state, and it
// does so under the output lock.
package audio
