// Package websocket streams published events to connected browser clients.
//
// A single Hub goroutine owns the client set. Clients get a buffered send
// queue; a client whose queue is full when a message is broadcast is
// disconnected rather than allowed to stall the hub.
package websocket
