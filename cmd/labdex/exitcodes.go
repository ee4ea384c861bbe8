package main

// Exit codes.
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error (not in a repository, invalid config)
	ExitDataError     = 3 // Data error (malformed input, validation failure)
	ExitModelNotFound = 5 // Embedding backend or model not available
)
