// Package config loads the run configuration and the warehouse credentials.
//
// The run configuration comes from a JSON or YAML file; a missing file means defaults.
// Credentials come from environment variables first and a legacy JSON credentials file second.
// A .env file can seed the environment without overriding variables that are already set.
package config
