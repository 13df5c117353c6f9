package mainboilerplate

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// LogConfig configures handling of application log events.
type LogConfig struct {
	Level  string `long:"level" env:"LEVEL" default:"info" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Logging level"`
	Format string `long:"format" env:"FORMAT" default:"text" choice:"json" choice:"text" choice:"color" description:"Logging output format"`
	// Fields are attached to every log entry, as in --log.field=zone:us-east-1.
	Fields map[string]string `long:"field" env:"FIELDS" env-delim:"," description:"Field added to every log entry, as name:value. May be repeated"`
}

// InitLog configures the logger.
func InitLog(cfg LogConfig) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else if cfg.Format == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else if cfg.Format == "color" {
		log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)

	if lvl, err := log.ParseLevel(cfg.Level); err != nil {
		log.WithField("err", err).Fatal("unrecognized log level")
	} else {
		log.SetLevel(lvl)
	}

	if len(cfg.Fields) != 0 {
		var fields = make(log.Fields, len(cfg.Fields))
		for k, v := range cfg.Fields {
			fields[k] = v
		}
		AddLogFields(fields)
	}
}

// AddLogFields attaches |fields| to every subsequent entry of the standard
// logger. Fields set on an entry itself take precedence.
func AddLogFields(fields log.Fields) {
	log.AddHook(fieldsHook(fields))
}

// fieldsHook is a log.Hook which adds its Fields to each fired entry.
type fieldsHook log.Fields

func (h fieldsHook) Levels() []log.Level { return log.AllLevels }

func (h fieldsHook) Fire(entry *log.Entry) error {
	for k, v := range h {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
