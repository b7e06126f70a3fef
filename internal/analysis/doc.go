// Package analysis post-processes finished runs.
//
//   - [Summarize]: temperature and energy statistics of a report series and the
//     dominant period of the kinetic energy oscillation
//   - [PowerSpectrum]: one-sided amplitude spectrum of a uniformly sampled series
//   - [RDF]: radial distribution function of one configuration
package analysis
