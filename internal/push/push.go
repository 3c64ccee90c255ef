package push

import (
	"context"

	"github.com/rs/zerolog"
)

// Sender delivers one push message to a device token. The boolean reports
// whether a delivery was actually attempted: a missing or unusable token is
// (false, nil), not an error.
type Sender interface {
	Deliver(ctx context.Context, token, title, body string, data map[string]string) (bool, error)
}

// LogSender writes deliveries to the log instead of a push gateway. It is
// the default in development and keeps the dispatcher exercisable without
// provider credentials.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "push").Logger()}
}

func (s *LogSender) Deliver(ctx context.Context, token, title, body string, data map[string]string) (bool, error) {
	if len(token) < 8 {
		return false, nil
	}
	s.log.Info().
		Str("token_prefix", token[:8]).
		Str("title", title).
		Str("body", body).
		Interface("data", data).
		Msg("push delivered (log sink)")
	return true, nil
}
