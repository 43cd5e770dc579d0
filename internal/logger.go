package internal

import (
	"fmt"
	"log"
	"time"

	"paygate/entity"
	"paygate/services"
)

// Logger writes module-tagged log lines to stdout and, when a database
// is attached, persists everything above debug level.
type Logger struct {
	module string
	debug  bool
	db     services.Database
}

func NewLogger(module string, debug bool, db services.Database) *Logger {
	return &Logger{
		module: module,
		debug:  debug,
		db:     db,
	}
}

func (l *Logger) Debug(msg string) {
	if !l.debug {
		return
	}
	log.Printf("%s: debug: %s", l.module, msg)
}

func (l *Logger) Info(msg string) {
	log.Printf("%s: %s", l.module, msg)
	l.persist("info", msg, nil)
}

func (l *Logger) Warn(msg string) {
	log.Printf("%s: warning: %s", l.module, msg)
	l.persist("warning", msg, nil)
}

func (l *Logger) Error(msg string, err error) {
	log.Printf("%s: error: %s; %v", l.module, msg, err)
	l.persist("error", msg, err)
}

func (l *Logger) persist(level, msg string, err error) {
	if l.db == nil {
		return
	}
	record := &entity.LogRecord{
		Module:    l.module,
		Level:     level,
		Message:   msg,
		Timestamp: time.Now(),
	}
	if err != nil {
		record.Error = err.Error()
	}
	if dbErr := l.db.WriteLogMessage(record); dbErr != nil {
		log.Printf("%s: write log record: %v", l.module, dbErr)
	}
}

var _ services.LogHandler = (*Logger)(nil)

// secret shortens sensitive values for logging.
func secret(some string) string {
	if len(some) > 5 {
		return fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		return "?"
	}
	return "***"
}
