// Package scheduler runs the background indexing loop.
//
// Each cycle moves Idle -> Evaluating -> (skip | Processing) -> Idle.
// Evaluation asks the resource probes whether the machine is quiet
// enough: minimum idle time, battery charge when unplugged, and memory
// headroom. When a gate blocks, the cycle is skipped and the scheduler
// sleeps until the next interval.
//
// Processing walks the watch roots, detects new, changed and deleted
// files, and for each changed file chunks its content, embeds the
// chunks through a bounded worker pool, and writes the file row plus
// its full chunk set in one transaction. Every processing cycle is
// recorded as a session: the row is inserted with status "running"
// before work starts and finalized on the way out as completed,
// interrupted or failed, so a crash leaves a visibly unfinished
// session.
package scheduler
