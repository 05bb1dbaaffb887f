// Package extractor turns the capture process's raw output stream into
// discrete frames, applying admission control against the shared occupancy
// counter before frames enter the queue.
package extractor
