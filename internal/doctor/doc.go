// Package doctor runs diagnostic checks against the config and every data
// source the dashboard reads, so a missing GPU tool or a sandbox that hides
// processes shows up before the dashboard starts.
package doctor
