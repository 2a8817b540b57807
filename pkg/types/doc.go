// Package types defines the shared value types used across the florasynth
// system: the (genus, species) entity key, source identifiers and excerpts,
// and per-field rule sets. It sits at the bottom of the package graph and
// imports no other florasynth packages.
package types
