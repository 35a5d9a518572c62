// Package xtest contains the regression suites that are run against a secure environment, and
// the test scope type T they are written with.
//
// Suites are grouped the way the environment's own test numbering groups them: the 1000
// family covers sessions, parameters, concurrency, crypto and panics, and the 6000 family
// covers secure storage. Storage tests run once for each storage the environment actually
// provides, as found by StorageProbe.
package xtest
