package loadproxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Vendor names one of the supported warehouse backends.
type Vendor string

const (
	// VendorFirebolt is the columnar engine.
	VendorFirebolt Vendor = "firebolt"

	// VendorSnowflake is the cloud warehouse.
	VendorSnowflake Vendor = "snowflake"

	// VendorRedshift is the relational warehouse.
	VendorRedshift Vendor = "redshift"

	// DefaultVendor is used when the configuration does not name one.
	DefaultVendor = VendorFirebolt
)

// ParseVendor maps a configured vendor name (case-insensitive) to a Vendor.
func ParseVendor(name string) (Vendor, error) {
	switch v := Vendor(strings.ToLower(strings.TrimSpace(name))); v {
	case VendorFirebolt, VendorSnowflake, VendorRedshift:
		return v, nil
	default:
		return "", errors.Join(ErrUnknownVendor, fmt.Errorf("unknown VENDOR: %s", name))
	}
}

// ResultMode decides whether result rows are fetched before being discarded.
type ResultMode string

const (
	// ResultModeFetch runs the query and drains every result row.
	ResultModeFetch ResultMode = "fetch"

	// ResultModeExecute runs the query without requesting result rows.
	ResultModeExecute ResultMode = "execute"
)

// ParseResultMode maps a configured result mode to a ResultMode; empty means ResultModeFetch.
func ParseResultMode(name string) (ResultMode, error) {
	switch m := ResultMode(strings.ToLower(strings.TrimSpace(name))); m {
	case "":
		return ResultModeFetch, nil
	case ResultModeFetch, ResultModeExecute:
		return m, nil
	default:
		return "", errors.Join(ErrInvalidResultMode, fmt.Errorf("unknown result mode: %s", name))
	}
}

// Conn is an established, vendor-specific warehouse session.
// Implementations serialize statements on the same session when the vendor client requires it.
type Conn interface {
	Execute(ctx context.Context, query string) error
	Close() error
}

// Connector is the uniform vendor capability. Exactly one Connector is selected per process.
type Connector interface {
	// Vendor returns the backend this connector talks to.
	Vendor() Vendor

	// Connect opens a new dedicated session.
	Connect(ctx context.Context) (Conn, error)

	// CacheDisableStatement returns the statement that turns off result caching for a session.
	CacheDisableStatement() string

	// ProbeQuery returns the trivial query used to validate the probe connection.
	ProbeQuery() string
}
