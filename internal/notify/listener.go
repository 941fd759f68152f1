package notify

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/carteiraapp/carteira/internal/logger"
)

// Event is one raw notification delivered by the platform listener service.
// Events are fire-and-forget; nothing is acknowledged back.
type Event struct {
	Package string
	Text    string
}

// Importer turns a parsed notification into a stored transaction.
type Importer interface {
	ImportNotification(ctx context.Context, text string, amount decimal.Decimal) error
}

// Listener consumes notification events, filters them, and hands relevant
// ones to the importer. Irrelevant or unparseable events are dropped without
// surfacing an error.
type Listener struct {
	events   <-chan Event
	importer Importer
}

// NewListener creates a Listener over the given event source.
func NewListener(events <-chan Event, importer Importer) *Listener {
	return &Listener{events: events, importer: importer}
}

// Run processes events until the context is canceled or the source closes.
func (l *Listener) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, open := <-l.events:
			if !open {
				return nil
			}

			parsed, ok := Parse(event.Package, event.Text)
			if !ok {
				log.Debug().
					Str("package", event.Package).
					Msg("Dropped irrelevant notification")
				continue
			}

			if err := l.importer.ImportNotification(ctx, parsed.Text, parsed.Amount); err != nil {
				log.Warn().
					Err(err).
					Str("package", event.Package).
					Msg("Failed to import notification transaction")
				continue
			}

			log.Info().
				Str("package", event.Package).
				Str("amount", parsed.Amount.String()).
				Msg("Imported transaction from notification")
		}
	}
}
