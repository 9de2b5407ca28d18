package mail

import (
	"context"

	"github.com/solward/accountd/internal/logging"
)

// LogSender records outbound mail instead of delivering it. Used in
// development and tests when no relay is configured.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.log.Info(ctx, "mail (log only)", "to", to, "subject", subject, "bytes", len(htmlBody))
	return nil
}
