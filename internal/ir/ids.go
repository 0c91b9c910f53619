package ir

import "fmt"

// Sequential identifiers are a pure function of discovery order, never of
// wall-clock time, so repeated runs over the same input produce identical
// documents.

// MessageID formats a message identifier, e.g. "m0000".
func MessageID(index int) string {
	return fmt.Sprintf("m%04d", index)
}

// QAID formats a QA unit identifier, e.g. "q0000".
func QAID(index int) string {
	return fmt.Sprintf("q%04d", index)
}

// PromptKey formats a prompt group identifier, e.g. "p0000".
func PromptKey(index int) string {
	return fmt.Sprintf("p%04d", index)
}
