package main

import (
	"github.com/sirupsen/logrus"
)

// logrusLogger adapts a *logrus.Logger to kbproto.Logger, the narrow
// interface every protocol front-end accepts, keeping those packages free
// of any direct logging dependency.
type logrusLogger struct {
	l *logrus.Logger
}

func newLogger(verbose bool) *logrusLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return &logrusLogger{l: l}
}

func fieldsFromKV(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

func (a *logrusLogger) Debug(msg string, kv ...interface{}) {
	a.l.WithFields(fieldsFromKV(kv)).Debug(msg)
}

func (a *logrusLogger) Info(msg string, kv ...interface{}) {
	a.l.WithFields(fieldsFromKV(kv)).Info(msg)
}

func (a *logrusLogger) Error(msg string, kv ...interface{}) {
	a.l.WithFields(fieldsFromKV(kv)).Error(msg)
}
