// Package logadapter wires kernel.Logger to a logiface-backed zerolog
// sink, with donation/MLFQS chatter rate-limited by category so a busy
// scheduler doesn't flood the destination with repetitive debug lines.
package logadapter

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"

	"github.com/NiHighlism/gophreads/kernel"
)

// defaultRates throttles any one log category (spec.md §7's own note that
// debug-level scheduling traces are high-volume) to a burst of 20 within a
// second, decaying to 200/minute sustained.
var defaultRates = map[time.Duration]int{
	time.Second: 20,
	time.Minute: 200,
}

// Adapter implements kernel.Logger by forwarding to a logiface.Logger backed
// by izerolog, rate-limiting repetitive categories with catrate.Limiter.
type Adapter struct {
	logger *logiface.Logger[logiface.Event]
	level  kernel.LogLevel
	limit  *catrate.Limiter
}

// New builds an Adapter writing through z at minimum severity level, with
// per-category rate limiting using rates (nil selects defaultRates).
func New(z zerolog.Logger, level kernel.LogLevel, rates map[time.Duration]int) *Adapter {
	if rates == nil {
		rates = defaultRates
	}
	l := izerolog.L.New(
		izerolog.L.WithZerolog(z),
		izerolog.L.WithLevel(toLogifaceLevel(level)),
	).Logger()
	return &Adapter{logger: l, level: level, limit: catrate.NewLimiter(rates)}
}

func toLogifaceLevel(l kernel.LogLevel) logiface.Level {
	switch l {
	case kernel.LevelDebug:
		return logiface.LevelDebug
	case kernel.LevelInfo:
		return logiface.LevelInformational
	case kernel.LevelWarn:
		return logiface.LevelWarning
	case kernel.LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// IsEnabled reports whether level passes both the configured floor and the
// category-agnostic worst case (a caller must still check per-category
// throttling via Log, which may silently drop a permitted-by-level entry).
func (a *Adapter) IsEnabled(level kernel.LogLevel) bool {
	return level >= a.level
}

// Log forwards entry to the underlying logiface logger, dropping it
// silently if its category is currently rate-limited.
func (a *Adapter) Log(entry kernel.LogEntry) {
	if !a.IsEnabled(entry.Level) {
		return
	}
	if _, ok := a.limit.Allow(entry.Category); !ok {
		return
	}

	b := a.logger.Build(toLogifaceLevel(entry.Level))
	if b == nil {
		return
	}
	b = b.Int(`thread_id`, entry.ThreadID).Str(`category`, entry.Category)
	for k, v := range entry.Fields {
		b = b.Any(k, v)
	}
	b.Log(entry.Message)
}
