package corosched

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// IoMode selects how the scheduler's IoBridge signals I/O readiness.
type IoMode uint8

const (
	// IoModeToken uses a buffered channel (capacity 1024) of readiness ids
	// fed by external producers. It is available on every platform.
	IoModeToken IoMode = iota
	// IoModePoll uses an OS readiness poller (epoll on Linux). Registering
	// an IoSource requires a real file descriptor.
	IoModePoll
)

func (m IoMode) String() string {
	if m == IoModePoll {
		return "poll"
	}
	return "token"
}

// defaultIdleTimeout is the dispatch loop's liveness watchdog: how long it
// waits for a syscall or I/O event before giving up with tasks still live.
const defaultIdleTimeout = 5 * time.Second

// defaultPriority is the priority assigned by Spawn (as opposed to
// SpawnWithPriority).
const defaultPriority uint8 = 10

// options holds resolved Scheduler configuration. It is unexported; callers
// build it only through SchedulerOption values passed to New.
type options struct {
	idleTimeout     time.Duration
	defaultPriority uint8
	ioMode          IoMode
	activityLog     ActivityLog
	clock           Clock
	metrics         *Metrics
	logger          *logrus.Entry
}

func defaultOptions() *options {
	return &options{
		idleTimeout:     defaultIdleTimeout,
		defaultPriority: defaultPriority,
		ioMode:          IoModeToken,
		clock:           NewVirtualClock(time.Time{}),
		logger:          NewComponentLogger("scheduler"),
	}
}

// SchedulerOption configures a Scheduler at construction time.
type SchedulerOption func(*options)

// WithIdleTimeout overrides the dispatch loop's idle-timeout watchdog.
func WithIdleTimeout(d time.Duration) SchedulerOption {
	return func(o *options) { o.idleTimeout = d }
}

// WithDefaultPriority overrides the priority Spawn assigns.
func WithDefaultPriority(pri uint8) SchedulerOption {
	return func(o *options) { o.defaultPriority = pri }
}

// WithIoMode selects the IoBridge mode. Poll mode additionally requires a
// platform that implements it (Linux today); requesting it elsewhere falls
// back to token mode.
func WithIoMode(mode IoMode) SchedulerOption {
	return func(o *options) { o.ioMode = mode }
}

// WithActivityLog overrides the ActivityLog sink. The default sink writes
// through a logrus component logger tagged "scheduler".
func WithActivityLog(log ActivityLog) SchedulerOption {
	return func(o *options) { o.activityLog = log }
}

// WithClock overrides the scheduler's time source. The default is a
// VirtualClock; pass WallClock{} for a wall-clock-backed scheduler.
func WithClock(clock Clock) SchedulerOption {
	return func(o *options) { o.clock = clock }
}

// WithMetrics attaches a Metrics collector. Without this option the
// scheduler records nothing and never touches a Prometheus registry.
func WithMetrics(m *Metrics) SchedulerOption {
	return func(o *options) { o.metrics = m }
}

// WithLogger overrides the component logger used for scheduler lifecycle
// messages (not the ActivityLog, which is a separate sink).
func WithLogger(entry *logrus.Entry) SchedulerOption {
	return func(o *options) { o.logger = entry }
}

func resolveOptions(opts []SchedulerOption) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.activityLog == nil {
		o.activityLog = NewActivityLog(o.logger)
	}
	return o
}

// FileConfig is the subset of Scheduler configuration a host process
// typically loads from a YAML file rather than setting in code.
type FileConfig struct {
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	DefaultPriority uint8         `yaml:"default_priority"`
	IoMode          string        `yaml:"io_mode"`
	Log             LogConfig     `yaml:"log"`
}

// DefaultFileConfig returns the scheduler's defaults in FileConfig form.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		IdleTimeout:     defaultIdleTimeout,
		DefaultPriority: defaultPriority,
		IoMode:          IoModeToken.String(),
		Log:             *DefaultLogConfig(),
	}
}

// LoadFileConfig reads and unmarshals a YAML document into a FileConfig,
// starting from DefaultFileConfig so an omitted field keeps its default
// rather than zeroing out.
func LoadFileConfig(r io.Reader) (*FileConfig, error) {
	cfg := DefaultFileConfig()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options converts a FileConfig into SchedulerOptions, ready to pass to New.
// It also applies the embedded LogConfig to the package's root logger via
// ApplyLogConfig, so a host process that loads a FileConfig doesn't have to
// do so separately.
func (c *FileConfig) Options() []SchedulerOption {
	mode := IoModeToken
	if c.IoMode == IoModePoll.String() {
		mode = IoModePoll
	}
	if err := ApplyLogConfig(&c.Log); err != nil {
		NewComponentLogger("config").WithError(err).Warn("invalid log config, keeping previous level")
	}
	return []SchedulerOption{
		WithIdleTimeout(c.IdleTimeout),
		WithDefaultPriority(c.DefaultPriority),
		WithIoMode(mode),
	}
}
