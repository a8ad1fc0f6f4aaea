package types

// Version is the application version, overridden at build time via -ldflags
var Version = "dev"

// AppName is used for the settings directory and temp directory prefixes
const AppName = "smodinst"
