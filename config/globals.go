package config

const (
	AppName   = "chum"
	AppNameUC = "CHUM"

	// ObjectDir is the directory (or key prefix) all generated objects
	// live under on the target.
	ObjectDir = "chum"
)

var (
	GlobalQuiet   = false // Quiet flag set via command line
	GlobalJSON    = false // Json flag set via command line
	GlobalDebug   = false // Debug flag set via command line
	GlobalNoColor = false // No Color flag set via command line
)
