// Package viz renders a running simulation in the terminal.
//
// [Model] is a Bubble Tea model fed with energy reports by the observer
// returned from [Observer]. It shows progress, the latest report, an
// asciigraph chart of the total energy and a temperature sparkline.
//
// # Key Bindings
//
//	q, ctrl+c - Stop the run and quit
package viz
