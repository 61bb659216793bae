// Package giterror classifies errors returned by the GitHub search APIs so
// the clients can map them onto the sentinels in internal/errors. Raw
// transport and GraphQL errors only carry text, so classification falls back
// to message patterns when no typed error in the chain answers for itself.
package giterror
