// Package lifecycle provides a small supervisor for the agent's long-running
// workers: the frame extractor, the transport session loops, and the
// controller. All workers share one cancellation signal; shutdown waits for
// them with a bounded timeout.
package lifecycle
