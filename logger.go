package bytestreams

import (
	"log"
)

type Logger interface {
	Errorf(format string, args ...interface{})
}

// Std adapts the standard library logger.
type Std struct {
	*log.Logger
}

func NewLogger(l *log.Logger) *Std {
	return &Std{l}
}

func (sf Std) Errorf(format string, args ...interface{}) {
	sf.Logger.Printf("[E]: "+format, args...)
}
