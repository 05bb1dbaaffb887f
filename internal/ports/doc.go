// Package ports defines the interfaces that connect the streaming core to
// infrastructure adapters. The core depends only on these interfaces;
// concrete implementations live in internal/adapters.
package ports
