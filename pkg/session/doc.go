/*
Package session keeps many concurrent conversations in memory.

Each session owns its own interpreter. The Manager serialises every
operation on a session behind a per-session lock, so HTTP handlers and other
callers may share it freely. Locks are reference counted and dropped as soon
as nobody waits on them.
*/
package session
