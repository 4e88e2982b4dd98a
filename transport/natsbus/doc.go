// Package natsbus publishes game events to a NATS server so other services
// can follow games without polling the REST API.
//
// Subjects:
//
//	memorygame.sessions.<id>.state   StateMessage after every change
//	memorygame.scores                scores.Record for every finished game
//
// States are the same masked snapshots the API returns.
package natsbus
