package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse"
)

// Environment variables holding credentials. They take precedence over the credentials file.
const (
	EnvFireboltEngineName   = "FIREBOLT_ENGINE_NAME"
	EnvFireboltDatabase     = "FIREBOLT_DATABASE"
	EnvFireboltAccountName  = "FIREBOLT_ACCOUNT_NAME"
	EnvFireboltClientID     = "FIREBOLT_SERVICE_ID"
	EnvFireboltClientSecret = "FIREBOLT_SERVICE_SECRET"
	EnvSnowflakeAccount     = "SNOWFLAKE_ACCOUNT"
	EnvSnowflakeUser        = "SNOWFLAKE_USER"
	EnvSnowflakePassword    = "SNOWFLAKE_PASSWORD"
	EnvSnowflakeWarehouse   = "SNOWFLAKE_WAREHOUSE"
	EnvSnowflakeDatabase    = "SNOWFLAKE_DATABASE"
	EnvSnowflakeSchema      = "SNOWFLAKE_SCHEMA"
	EnvRedshiftHost         = "REDSHIFT_HOST"
	EnvRedshiftPort         = "REDSHIFT_PORT"
	EnvRedshiftDatabase     = "REDSHIFT_DATABASE"
	EnvRedshiftUser         = "REDSHIFT_USER"
	EnvRedshiftPassword     = "REDSHIFT_PASSWORD"
	EnvRedshiftSSL          = "REDSHIFT_SSL"
	EnvRedshiftDriver       = "REDSHIFT_DRIVER"
)

const (
	logMsgCredentialsFile    = "using legacy credentials file"
	logMsgCredentialsEnv     = "using environment variables for credentials"
	logMsgCredentialsIgnored = "could not read or parse credentials file"
)

type credentialsFile struct {
	Firebolt struct {
		EngineName  string `json:"engine_name"`
		Database    string `json:"database"`
		AccountName string `json:"account_name"`
		Auth        struct {
			ID     string `json:"id"`
			Secret string `json:"secret"`
		} `json:"auth"`
	} `json:"firebolt"`

	Snowflake struct {
		Account   string `json:"account"`
		User      string `json:"user"`
		Password  string `json:"password"`
		Warehouse string `json:"warehouse"`
		Database  string `json:"database"`
		Schema    string `json:"schema"`
	} `json:"snowflake"`

	Redshift struct {
		Host     string              `json:"host"`
		Port     jsoniter.RawMessage `json:"port"`
		Database string              `json:"database"`
		User     string              `json:"user"`
		Password string              `json:"password"`
		SSL      jsoniter.RawMessage `json:"ssl"`
		Driver   string              `json:"driver"`
	} `json:"redshift"`
}

// Credentials resolves the credentials of every vendor. Each field comes from its environment
// variable when set, else from the credentials file at path. An empty path skips the file.
// An unreadable file is logged and ignored; unresolved fields stay empty.
// A malformed REDSHIFT_PORT or REDSHIFT_SSL fails with loadproxy.ErrLoadingConfigFailed.
func (l *Loader) Credentials(path string) (warehouse.Credentials, error) {
	file := l.readCredentialsFile(path)

	var credentials warehouse.Credentials

	fb := &credentials.Firebolt
	fb.EngineName = l.pick(EnvFireboltEngineName, file.Firebolt.EngineName)
	fb.Database = l.pick(EnvFireboltDatabase, file.Firebolt.Database)
	fb.AccountName = l.pick(EnvFireboltAccountName, file.Firebolt.AccountName)
	fb.ClientID = l.pick(EnvFireboltClientID, file.Firebolt.Auth.ID)
	fb.ClientSecret = l.pick(EnvFireboltClientSecret, file.Firebolt.Auth.Secret)

	sf := &credentials.Snowflake
	sf.Account = l.pick(EnvSnowflakeAccount, file.Snowflake.Account)
	sf.User = l.pick(EnvSnowflakeUser, file.Snowflake.User)
	sf.Password = l.pick(EnvSnowflakePassword, file.Snowflake.Password)
	sf.Warehouse = l.pick(EnvSnowflakeWarehouse, file.Snowflake.Warehouse)
	sf.Database = l.pick(EnvSnowflakeDatabase, file.Snowflake.Database)
	sf.Schema = l.pick(EnvSnowflakeSchema, file.Snowflake.Schema)

	rs := &credentials.Redshift
	rs.Host = l.pick(EnvRedshiftHost, file.Redshift.Host)
	rs.Database = l.pick(EnvRedshiftDatabase, file.Redshift.Database)
	rs.User = l.pick(EnvRedshiftUser, file.Redshift.User)
	rs.Password = l.pick(EnvRedshiftPassword, file.Redshift.Password)
	rs.Driver = l.pick(EnvRedshiftDriver, file.Redshift.Driver)

	port, err := parsePort(l.pick(EnvRedshiftPort, scalar(file.Redshift.Port)))
	if err != nil {
		return warehouse.Credentials{}, err
	}

	rs.Port = port

	ssl, err := parseFlag(l.pick(EnvRedshiftSSL, scalar(file.Redshift.SSL)))
	if err != nil {
		return warehouse.Credentials{}, err
	}

	rs.SSL = ssl

	return credentials, nil
}

func (l *Loader) readCredentialsFile(path string) credentialsFile {
	var file credentialsFile

	if path == "" {
		l.logInfo(logMsgCredentialsEnv)
		return file
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &file)
	}

	if err != nil {
		l.logWarn(logMsgCredentialsIgnored, logAttrPath, path, logAttrError, err.Error())
		return credentialsFile{}
	}

	l.logInfo(logMsgCredentialsFile, logAttrPath, path)

	return file
}

func (l *Loader) pick(key, fallback string) string {
	if value, ok := l.env(key); ok {
		return value
	}

	return fallback
}

// scalar renders a JSON number, string or bool as plain text; null or absent is empty.
func scalar(raw jsoniter.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	if err := jsoniter.Unmarshal(raw, &text); err == nil {
		return text
	}

	return string(raw)
}

func parsePort(value string) (int, error) {
	if value == "" {
		return 0, nil
	}

	port, err := strconv.Atoi(value)
	if err != nil || port < 0 || port > 65535 {
		return 0, errors.Join(loadproxy.ErrLoadingConfigFailed, fmt.Errorf("invalid redshift port %q", value))
	}

	return port, nil
}

func parseFlag(value string) (bool, error) {
	if value == "" {
		return false, nil
	}

	flag, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Join(loadproxy.ErrLoadingConfigFailed, fmt.Errorf("invalid redshift ssl flag %q", value))
	}

	return flag, nil
}
