// Package domain contains the core model for desim: instrument and observing
// parameters, sensitivity rows and the run artifacts that persist them.
//
// The domain is transport- and persistence-agnostic: it does not depend on YAML parsing,
// net/http, or the filesystem. Infra/adapters map into/from these types.
package domain
