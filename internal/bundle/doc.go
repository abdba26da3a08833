// Package bundle assembles a profile's stylesheets and scripts into one
// self-contained HTML file.
//
// Files are emitted in the order the profile lists them, followed by the
// extras found on disk. Every section is preceded by a separator naming the
// file so the bundle stays navigable. Listed files that are missing are
// reported and skipped; they never fail a build.
package bundle
