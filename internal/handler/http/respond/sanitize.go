package respond

import (
	"regexp"
)

var (
	// Password embedded in a connection string DSN.
	dsnPasswordPattern = regexp.MustCompile(`://([^:/?#]+):([^@]+)@`)

	// Bearer tokens from Authorization headers echoed into errors.
	bearerTokenPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`)

	// Secrets passed as query or form parameters.
	paramSecretPattern = regexp.MustCompile(`(?i)(token|password|secret|api_key|apikey)=[^&\s]+`)
)

// SanitizeError returns the error message with credentials masked so it can
// be logged safely.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = bearerTokenPattern.ReplaceAllString(msg, "Bearer ****")
	msg = paramSecretPattern.ReplaceAllString(msg, "$1=****")

	return msg
}
