// Package deploy mirrors a profile's sources into a flat live directory that
// can be served as-is.
//
// A Planner decides which files belong to the mirror and where each one
// lands. A Deployer then refreshes the mirror, either by copying only what
// changed (ModeSmart) or by rebuilding it from scratch (ModeFull), and
// returns a Report.
package deploy
