package warehouse

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const (
	dialectDefault  = "default"
	dialectPostgres = "postgres"
	probeLiteral    = "42"
)

var errBuildingProbeQueryFailed = errors.New("building probe query failed")

// buildProbeQuery renders the warm-up validation query, SELECT 42, in the vendor's dialect.
func buildProbeQuery(vendor loadproxy.Vendor) (string, error) {
	dialect := dialectDefault
	if vendor == loadproxy.VendorRedshift {
		dialect = dialectPostgres
	}

	sqlQuery, _, err := goqu.Dialect(dialect).Select(goqu.L(probeLiteral)).ToSQL()
	if err != nil {
		return "", errors.Join(errBuildingProbeQueryFailed, err)
	}

	return sqlQuery, nil
}
