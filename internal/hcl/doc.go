// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It parses configuration files, translates definition manifests
// and their type expressions into cty types, and merges several files into
// one config.Model.
package hcl
