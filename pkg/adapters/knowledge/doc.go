/*
Package knowledge answers "who is" questions for the dialogue.

Client queries the DuckDuckGo instant answer API. Requests are traced with
OpenTelemetry and guarded by a circuit breaker, so a failing upstream turns
into fast error.invoke events instead of stalled turns. Lookups are never
retried: the dialogue decides what to do with a failure.
*/
package knowledge
