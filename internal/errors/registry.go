package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (CW100-CW199)
	// ============================================

	"CW101": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Suggestion: "Pass --config with the path to craftwire.json",
	},
	"CW102": {
		Category:   CategoryConfig,
		Message:    "Invalid config file",
		Detail:     "craftwire.json could not be parsed.",
		Suggestion: "Check that craftwire.json is valid JSON",
	},
	"CW103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"CW104": {
		Category: CategoryConfig,
		Message:  "Invalid flags",
	},
	"CW105": {
		Category:   CategoryConfig,
		Message:    "No server address",
		Suggestion: "Pass --server host[:port] or set \"server\" in craftwire.json",
	},

	// ============================================
	// Connection Errors (CW200-CW299)
	// ============================================

	"CW201": {
		Category:   CategoryConnection,
		Message:    "Connection failed",
		Suggestion: "Check that the server is running and the address is correct",
	},
	"CW202": {
		Category:   CategoryConnection,
		Message:    "Handshake timed out",
		Detail:     "The server did not finish the login or status exchange in time.",
		Suggestion: "Raise handshakeTimeout in craftwire.json",
	},
	"CW203": {
		Category: CategoryConnection,
		Message:  "Disconnected by server",
	},
	"CW204": {
		Category: CategoryConnection,
		Message:  "Protocol error",
		Detail:   "The server sent data that does not decode as protocol 47.",
	},
	"CW205": {
		Category: CategoryConnection,
		Message:  "Connection lost",
	},
	"CW206": {
		Category: CategoryConnection,
		Message:  "Capture failed",
	},
	"CW207": {
		Category: CategoryConnection,
		Message:  "Admin server failed",
	},

	// ============================================
	// Auth Errors (CW300-CW399)
	// ============================================

	"CW301": {
		Category: CategoryAuth,
		Message:  "Login rejected",
	},
	"CW302": {
		Category:   CategoryAuth,
		Message:    "Server requires online mode",
		Detail:     "The server asked for encryption but no access token was configured.",
		Suggestion: "Pass --token-env and --profile-id, or connect to an offline-mode server",
	},
	"CW303": {
		Category:   CategoryAuth,
		Message:    "Session join failed",
		Suggestion: "Refresh the access token and try again",
	},
	"CW304": {
		Category: CategoryAuth,
		Message:  "Missing access token",
		Detail:   "The environment variable named by --token-env is empty.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
