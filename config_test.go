package corosched

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFileConfig_OverridesOnlyGivenFields(t *testing.T) {
	doc := `
default_priority: 3
io_mode: poll
log:
  level: warn
`
	cfg, err := LoadFileConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}
	if cfg.DefaultPriority != 3 {
		t.Fatalf("got DefaultPriority %d, want 3", cfg.DefaultPriority)
	}
	if cfg.IoMode != "poll" {
		t.Fatalf("got IoMode %q, want poll", cfg.IoMode)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("got Log.Level %q, want warn", cfg.Log.Level)
	}
	// idle_timeout was omitted; it should keep DefaultFileConfig's value.
	if cfg.IdleTimeout != defaultIdleTimeout {
		t.Fatalf("got IdleTimeout %v, want default %v", cfg.IdleTimeout, defaultIdleTimeout)
	}
}

func TestLoadFileConfig_RejectsMalformedYAML(t *testing.T) {
	if _, err := LoadFileConfig(strings.NewReader("default_priority: [unclosed")); err == nil {
		t.Fatal("expected an error unmarshaling malformed YAML")
	}
}

func TestFileConfig_OptionsAppliesIoModeAndIdleTimeout(t *testing.T) {
	cfg := DefaultFileConfig()
	cfg.IoMode = IoModePoll.String()
	cfg.IdleTimeout = 2 * time.Second
	cfg.DefaultPriority = 7

	sched := New(cfg.Options()...)
	if sched.opts.ioMode != IoModePoll {
		t.Fatalf("got ioMode %v, want poll", sched.opts.ioMode)
	}
	if sched.opts.idleTimeout != 2*time.Second {
		t.Fatalf("got idleTimeout %v, want 2s", sched.opts.idleTimeout)
	}
	if sched.opts.defaultPriority != 7 {
		t.Fatalf("got defaultPriority %d, want 7", sched.opts.defaultPriority)
	}
}

func TestDefaultFileConfig_RoundTripsThroughYAML(t *testing.T) {
	want := DefaultFileConfig()
	cfg, err := LoadFileConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}
	if *cfg != *want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}
