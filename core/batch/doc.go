// Package batch groups many small remote mutations into size-bounded batches.
//
// Storefront bulk mutations accept a limited number of inputs per call
// (observed default 50). Chunks splits a slice into such batches lazily and
// Submit pushes every batch through a caller-supplied function, collecting
// each outcome. A failing batch never stops the batches after it.
package batch
