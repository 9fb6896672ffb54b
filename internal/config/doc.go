// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading it from a
// concrete source.
//
// The `config.Model` carries host settings, definition manifests and the
// default effects written when no effects file exists yet. The HCL
// implementation lives in the hcl package.
package config
