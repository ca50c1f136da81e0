// Package vm holds the runtime state of a compiled liveprog script.
//
// This package contains:
//   - the interned string pool addressed by sentinel-encoded floats
//   - the block-structured global variable table with atomic slots
//   - the resolver that classifies a raw slot as a number or a string
//   - the engine that hosts the loaded program and runs it per buffer
package vm
