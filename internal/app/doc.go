// Package app wires the download pipeline together.
//
// The orchestrator runs one strictly sequential pass per invocation:
//
//	parse URL -> resolve ref -> fetch archive -> extract folder -> move into place
//
// The first failing stage aborts the run; retries exist only inside the
// archive fetcher. The orchestrator owns the lifecycle of the temporary
// archive file and of the staging directory, both of which are removed
// on every exit path.
package app
