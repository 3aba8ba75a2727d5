// Package preflight provides readiness checks for the folders, history
// database, and subtitle providers that subseek depends on.
//
// These checks run in two contexts:
//   - fetch and batch call RunAll before touching any video so a read-only
//     folder or a missing API key fails fast instead of once per file.
//   - The CLI "subseek doctor" command prints every check with its detail.
//
// Each provider check is gated by its config toggle; disabled providers are
// reported as passing with a "Disabled" detail.
package preflight
