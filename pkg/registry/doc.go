// Package registry models the OS hardware registry boundary: string-keyed
// records of typed-or-opaque property values, the Adapter query interface,
// and the production ioreg-backed implementation for the IOKit registry.
package registry
