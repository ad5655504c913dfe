package session

import "github.com/rs/zerolog"

// logger is disabled until SetLogger is called.
var logger = zerolog.Nop()

// SetLogger installs a structured logger used by the session layer.
func SetLogger(l zerolog.Logger) { logger = l.With().Str("component", "session").Logger() }
