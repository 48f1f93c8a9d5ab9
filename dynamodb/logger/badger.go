package logger

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// Badger adapts a logr.Logger to badger's printf-style Logger interface.
// Badger's info output is logged at V(1) and its debug output at V(2).
type Badger struct {
	log logr.Logger
}

// NewBadger returns a badger logger writing to log.
func NewBadger(log logr.Logger) *Badger {
	return &Badger{log: log.WithName("badger")}
}

func (b *Badger) Errorf(format string, args ...any) {
	b.log.Error(nil, msg(format, args))
}

func (b *Badger) Warningf(format string, args ...any) {
	b.log.Info(msg(format, args), "level", "warning")
}

func (b *Badger) Infof(format string, args ...any) {
	b.log.V(1).Info(msg(format, args))
}

func (b *Badger) Debugf(format string, args ...any) {
	b.log.V(2).Info(msg(format, args))
}

// msg formats a badger log line; badger terminates lines with a newline.
func msg(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
