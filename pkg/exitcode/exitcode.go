// Package exitcode provides standardized exit codes for versync
package exitcode

// Exit codes for the versync CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	FileSystemError = 3
	GuardError      = 4
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case FileSystemError:
		return "File system error"
	case GuardError:
		return "Guard precondition failed"
	default:
		return "Unknown error"
	}
}
