// Package catalog holds the static survey material: themes mapping to
// ordered video asset lists, the shared criteria list with scale hints, and
// the optional asset display-name lookup.
//
// The catalog is external data as far as the workflow is concerned. It is
// loaded once at startup from a TOML file (or the embedded default) and never
// mutated; every other package treats it as read-only. Asset identifiers are
// opaque strings owned by the transport.
package catalog
