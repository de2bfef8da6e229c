package warehouse

// FireboltConfig holds the connect inputs of the columnar engine.
type FireboltConfig struct {
	ClientID     string
	ClientSecret string
	EngineName   string
	AccountName  string
	Database     string
}

// SnowflakeConfig holds the connect inputs of the cloud warehouse.
type SnowflakeConfig struct {
	Account   string
	User      string
	Password  string
	Warehouse string
	Database  string
	Schema    string
}

// Redshift session drivers.
const (
	RedshiftDriverPGX = "pgx"
	RedshiftDriverPQ  = "pq"

	defaultRedshiftPort = 5439
)

// RedshiftConfig holds the connect inputs of the relational warehouse.
// Port 0 means the Redshift default 5439. SSL enables TLS without certificate verification.
type RedshiftConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSL      bool
	Driver   string
}

// Credentials carries the connect inputs of every vendor; only the selected vendor's record is used.
type Credentials struct {
	Firebolt  FireboltConfig
	Snowflake SnowflakeConfig
	Redshift  RedshiftConfig
}
