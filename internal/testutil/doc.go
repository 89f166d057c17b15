// Package testutil contains helpers shared by tests across packages: a
// testify-based platform mock and a fluent builder for message histories.
// They are not intended for production usage.
package testutil
