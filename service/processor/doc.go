// Package processor hosts the bounded pool of workers that execute inbound
// trigger jobs. Callers schedule a job and receive a wait function; a caller
// that stops waiting detaches from the job, which then reports its outcome
// through the job's Late callback.
package processor
