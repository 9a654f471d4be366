// Package parts maps part numbers to typed metadata.
//
// A part number is a kind prefix followed by a zero-padded serial, for
// example ANT00042 or SNAP00007. The mapping from prefix to kind, the
// allowed polarization tags, and the assembly ordering between kinds come
// from a Catalog, loaded once at startup from YAML and validated against an
// embedded CUE schema. Everything in this package is pure; the Catalog is
// passed explicitly to the components that need it.
package parts
