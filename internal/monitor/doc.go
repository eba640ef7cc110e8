// Package monitor provides the resource probes the indexing scheduler
// gates on: system quietness, power source and memory headroom.
//
// The Probe interface is injectable so the scheduler can be tested with
// fixed answers; SystemProbe is the live implementation backed by
// gopsutil and, for battery state on Linux, sysfs.
package monitor
