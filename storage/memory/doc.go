// Package memory provides an in-memory implementation of the reset token store.
// It is suitable for single-process deployments; a restart discards all pending
// reset tokens, which is acceptable because users can simply re-request a link.
package memory
