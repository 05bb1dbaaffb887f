// Package congestion estimates network pressure from queue occupancy, send
// failures, and server feedback, and recommends a stream profile with
// hysteresis so the resolution does not flap.
package congestion
