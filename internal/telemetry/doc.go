// Package telemetry holds the shared atomic scalars that connect the
// extractor, transport session, and controller. Besides the frame queue it
// is the only cross-task communication channel.
package telemetry
