/*
Package session manages the lifecycle of acquired tokens.

A Manager guards a login method so concurrent callers share one token: the
first caller performs the login while the rest wait, and later callers reuse
the cached token until it expires or is invalidated. Lifecycle transitions
are published on an event bus so renewal schedulers and monitors can react
without polling.
*/
package session
