// Package transport maintains the websocket session to the ingestion
// endpoint: join handshake, outbound frame sending with adaptive pacing,
// inbound server feedback, and keep-alive replies.
package transport
