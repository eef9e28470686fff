// Package process launches supervised children as local OS processes.
//
// Every child is started in its own process group. Cancelling the context passed
// to Launch is the equivalent of dropping the child's handle: the whole group is
// sent SIGKILL and Launch returns only after the child has been reaped, so a
// cancelled launch never leaves an orphan behind.
//
// Group termination is only guaranteed on Unix-like systems. On Windows the kill
// reaches the direct child only; grandchildren may survive and must be cleaned up
// separately by the caller.
package process
