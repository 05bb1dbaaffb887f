// Package agent assembles the capture, queue, transport, and adaptation
// components into a running camera shipper and hosts the controller that
// adjusts the stream profile under congestion.
package agent
