// Package logging wraps zap construction and provides the security-audit
// channel used for authentication and ownership failures.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

func New(env string) (*zap.SugaredLogger, error) {
	var l *zap.Logger
	var err error
	if env == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Audit returns the security-audit child logger. Auth failures and
// unauthorized access attempts go here in addition to the normal channel.
func Audit(log *zap.SugaredLogger) *zap.SugaredLogger {
	return log.Named("security")
}

// RedactEmail masks an address down to its first two characters and domain,
// e.g. "talal@example.com" -> "ta***@example.com". Addresses are never
// logged in full.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	local := email[:at]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***" + email[at:]
}
