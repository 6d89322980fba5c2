// Package directory defines the external identity directory contract and
// its LDAP implementation.
package directory

import "context"

// Record is the attribute set the directory reports for one identifier.
type Record struct {
	UID    string
	Name   string
	Email  string
	Active bool
	Admin  bool
	Groups []string
}

// Client looks identifiers up in an external directory.
//
// Lookup returns common.ErrorNotFound when the directory confirms the
// identifier is absent, and common.ErrorDirectoryUnavailable on transport or
// protocol failures. The two are never interchangeable: an outage must not
// be reported as an absence. Lookup may block on network I/O.
type Client interface {
	Lookup(ctx context.Context, uid string) (*Record, error)
}
