package corosched

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/variadico/lctime"
)

// timestampFormat is the strftime layout applied to every emitted event,
// matching the teacher's own Date asString default.
const timestampFormat = "%Y-%m-%d %H:%M:%S %Z"

// componentFieldName is the logrus field used to tag entries with the
// component that emitted them, mirroring the pack's "comp" field
// convention.
const componentFieldName = "comp"

var rootLogger = logrus.New()

func init() {
	rootLogger.SetOutput(os.Stderr)
}

// NewComponentLogger returns a logrus.Entry tagged with name in its comp
// field. The scheduler never configures process-wide logging (level,
// formatter, output) itself; a host process does that by calling
// ApplyLogConfig, or by configuring logrus directly.
func NewComponentLogger(name string) *logrus.Entry {
	return rootLogger.WithField(componentFieldName, name)
}

// LogConfig is the subset of logging setup a host process typically loads
// from its own configuration file before handing a component logger to a
// Scheduler.
type LogConfig struct {
	UseJSON bool   `yaml:"use_json"`
	Level   string `yaml:"level"`
}

// DefaultLogConfig returns the scheduler's logging defaults: text output at
// info level.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{UseJSON: false, Level: "info"}
}

// ApplyLogConfig applies cfg to the package's root logger. It is provided
// for convenience; collaborators that already manage a logrus instance can
// ignore it and pass their own *logrus.Entry to WithLogger instead.
func ApplyLogConfig(cfg *LogConfig) error {
	if cfg == nil {
		cfg = DefaultLogConfig()
	}
	if cfg.Level != "" {
		level, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		rootLogger.SetLevel(level)
	}
	if cfg.UseJSON {
		rootLogger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		rootLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// TaskEvent is a lifecycle event forwarded to an ActivityLog. TaskFailed is
// the only event the scheduler is required to emit; TaskFinished is emitted
// alongside it for symmetry and costs nothing to ignore.
type TaskEvent struct {
	Kind TaskEventKind
	Tid  TaskId
	Err  error // set for TaskFailed; nil for TaskFinished
}

// TaskEventKind distinguishes ActivityLog event variants.
type TaskEventKind uint8

const (
	TaskFinished TaskEventKind = iota
	TaskFailed
)

func (k TaskEventKind) String() string {
	if k == TaskFailed {
		return "TaskFailed"
	}
	return "TaskFinished"
}

// ActivityLog is a fire-and-forget sink for task lifecycle events. Emit must
// not block the dispatch loop; implementations that need to do expensive
// work should hand events off to a background goroutine. Failures to emit
// are the implementation's problem to swallow — the scheduler never checks
// a return value because there isn't one.
type ActivityLog interface {
	Emit(event TaskEvent)
}

// logrusActivityLog is the default ActivityLog, fanning events out to a
// component logger.
type logrusActivityLog struct {
	entry *logrus.Entry
}

// NewActivityLog returns an ActivityLog that writes events to entry. If
// entry is nil, a default component logger tagged "scheduler" is used.
func NewActivityLog(entry *logrus.Entry) ActivityLog {
	if entry == nil {
		entry = NewComponentLogger("scheduler")
	}
	return &logrusActivityLog{entry: entry}
}

func (l *logrusActivityLog) Emit(event TaskEvent) {
	fields := logrus.Fields{
		"tid":   event.Tid,
		"event": event.Kind.String(),
		"time":  lctime.Strftime(timestampFormat, time.Now()),
	}
	if event.Kind == TaskFailed {
		l.entry.WithFields(fields).WithError(event.Err).Warn("task failed")
		return
	}
	l.entry.WithFields(fields).Debug("task finished")
}
