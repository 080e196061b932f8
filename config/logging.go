package config

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func SetupLogging(conf Logging) error {
	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		return fmt.Errorf("unknown logging level %q: %w", conf.Level, err)
	}
	log.SetLevel(level)

	if conf.Path == "" {
		log.SetOutput(os.Stdout)
	} else {
		log.SetOutput(&lumberjack.Logger{
			Filename:   conf.Path,
			MaxSize:    conf.MaxSizeMB, // megabytes
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAgeDays, // days
			Compress:   true,
		})
	}
	log.SetFormatter(&log.TextFormatter{
		PadLevelText:    true,
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
	})
	return nil
}
