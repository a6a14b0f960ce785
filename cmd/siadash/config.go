package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose      = "verbose"
	FlagConfig       = "config"
	FlagAddress      = "address"
	FlagPassword     = "password"
	FlagSettingsFile = "settings-file"
	FlagLogFile      = "log-file"

	// Output format flags
	FlagJSON = "json"
)
