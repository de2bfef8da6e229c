package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const logMsgDotEnvLoaded = "loaded .env file"

// DotEnv loads the variables of the .env file at path into the process environment.
// Variables that are already set keep their value. A missing file is not an error.
func (l *Loader) DotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Join(loadproxy.ErrLoadingConfigFailed, err)
	}

	l.logInfo(logMsgDotEnvLoaded, logAttrPath, path)

	return nil
}
