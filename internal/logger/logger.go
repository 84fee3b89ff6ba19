// Package logger wraps logrus with the small, component-scoped API the rest
// of this module calls into, so call sites read like the teacher's bare
// log.Printf/log.Println but gain levels and structured fields for free.
package logger

import (
	"github.com/sirupsen/logrus"
)

// Logger is a component-scoped logger, e.g. logger.New("tracker").
type Logger struct {
	entry *logrus.Entry
}

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// New returns a Logger tagged with component, e.g. "session", "tracker",
// "peer".
func New(component string) Logger {
	return Logger{entry: base.WithField("component", component)}
}

func (l Logger) Debugf(format string, args ...interface{})   { l.entry.Debugf(format, args...) }
func (l Logger) Infof(format string, args ...interface{})    { l.entry.Infof(format, args...) }
func (l Logger) Warningf(format string, args ...interface{}) { l.entry.Warningf(format, args...) }
func (l Logger) Errorf(format string, args ...interface{})   { l.entry.Errorf(format, args...) }

func (l Logger) Debugln(args ...interface{})   { l.entry.Debugln(args...) }
func (l Logger) Infoln(args ...interface{})    { l.entry.Infoln(args...) }
func (l Logger) Warningln(args ...interface{}) { l.entry.Warnln(args...) }
func (l Logger) Errorln(args ...interface{})   { l.entry.Errorln(args...) }

// WithField returns a derived Logger carrying an additional structured
// field, e.g. peer address or piece index.
func (l Logger) WithField(key string, value interface{}) Logger {
	return Logger{entry: l.entry.WithField(key, value)}
}

// SetLevel adjusts the package-wide minimum log level (used by the CLI's
// -v flag).
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}
