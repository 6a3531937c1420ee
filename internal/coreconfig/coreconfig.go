// Package coreconfig holds process-wide mode flags; the type-variable
// printer consults IsTestMode so that golden-file tests can normalize
// generated names deterministically.
package coreconfig

// IsTestMode makes the type-variable printer render every generated
// variable name (one containing '*', e.g. "t14*") as "t?" so that
// golden tests don't depend on exactly which counter value a given run
// produced. Block names are not normalized.
var IsTestMode = false

// IsDeterministicDump is a mode flag that no package in this module
// reads; setting it changes no output.
var IsDeterministicDump = false
