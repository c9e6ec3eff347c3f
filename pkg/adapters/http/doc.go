/*
Package http exposes dialogue sessions over HTTP.

Each session is an interpreter held by a session.Manager. Clients post
events and receive the emitted commands with a diff of the snapshot. There
is no runner behind an HTTP session: the client plays SPEAK, performs
LISTEN and executes INVOKE commands, then posts the resulting events back.

	POST   /sessions                 create a session
	GET    /sessions                 list session ids
	GET    /sessions/{id}            snapshot
	POST   /sessions/{id}/events     send an event
	POST   /sessions/{id}/restart    force a restart
	GET    /sessions/{id}/stream     server-sent turns
	DELETE /sessions/{id}            discard
	GET    /chart                    Mermaid diagram (?session=id highlights it)
	GET    /metrics                  Prometheus metrics
*/
package http
