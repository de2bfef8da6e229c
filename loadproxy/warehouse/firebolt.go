package warehouse

import (
	"context"
	"net/url"

	_ "github.com/firebolt-db/firebolt-go-sdk" // firebolt driver
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse/internal/adapters"
)

const fireboltDriverName = "firebolt"

// DSN renders the firebolt-go-sdk data source name:
// firebolt:///<database>?account_name=...&client_id=...&client_secret=...&engine=...
func (c FireboltConfig) DSN() string {
	params := url.Values{}
	params.Set("account_name", c.AccountName)
	params.Set("client_id", c.ClientID)
	params.Set("client_secret", c.ClientSecret)
	params.Set("engine", c.EngineName)

	dsn := url.URL{
		Scheme:   fireboltDriverName,
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}

	return dsn.String()
}

func openFirebolt(cfg FireboltConfig) openFunc {
	return func(ctx context.Context) (adapters.DBConn, error) {
		db, err := sqlx.Open(fireboltDriverName, cfg.DSN())
		if err != nil {
			return nil, err
		}

		return adapters.NewSQLXConnAdapter(ctx, db)
	}
}
