// Package chat implements the session registry and broadcast hub shared by
// every live connection, together with the slash-command interpreter that
// maps inbound text onto registry operations.
//
// The package knows nothing about WebSockets or HTTP. Connections are
// represented by the Conn interface and are supplied by the transport layer,
// which also owns identity issuance.
package chat
