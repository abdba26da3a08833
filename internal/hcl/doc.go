// Package hcl provides the concrete HCL implementation of config.Loader.
// It is responsible for file discovery, parsing, decoding into the schema
// structs and translating them, with defaults applied, into the
// format-agnostic config model.
package hcl
