// Package monitor implements the live terminal dashboard behind
// `sshsshje watch`.
//
// It is a Bubble Tea program (Model-Update-View):
//
//  1. tickMsg fires every refresh interval
//  2. collectCmd runs Collect, which queries the telemetry Source concurrently
//  3. snapshotMsg stores the result and pushes system samples into History
//  4. View renders the header, tab bar, active tab and key help
//
// A tick that lands while a collection is still running is skipped, so a slow
// host never stacks up requests.
package monitor
