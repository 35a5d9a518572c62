// Package teectest provides an in-process fake of the client service for testing code that
// uses the teec package, including fake versions of the trusted applications that the
// regression suites exercise.
package teectest
