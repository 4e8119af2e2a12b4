// Package actor implements an in-process actor runtime: many lightweight,
// single-threaded-from-their-own-perspective processing units arranged in a
// supervision tree, communicating exclusively by asynchronous message
// passing and executed cooperatively on a shared dispatcher.
//
// Each actor owns a mailbox with separate user and system queues. System
// messages (initialization, stop/restart commands, failure reports and
// lifecycle events) are drained ahead of user traffic and are processed
// even while the mailbox is suspended. Panics inside an actor never unwind
// past its run-task: a sentinel converts them into a Failed message to the
// parent, whose supervisor strategy decides whether the child restarts,
// stops, resumes or the failure escalates.
//
// Actors are addressed through cheap, cloneable refs whose identity
// survives restarts. The system owns three well-known guardians (/user,
// /system, /temp) under a synthetic root, an events channel publishing
// lifecycle events, and a dead-letter topic that collects undeliverable
// messages.
package actor
