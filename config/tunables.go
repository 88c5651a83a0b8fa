// Package config loads and watches the engine's tunable settings: the
// exclusion-retry iteration budget, the default week-start weekday, and the
// default IANA zone used when a caller doesn't specify one. Settings are
// read from one or more HJSON files, merged in order (later files win),
// validated, and applied: the iteration budget to the atime/rrecur package,
// the week-start and zone defaults to this package's own accessors, and
// the logging setup to alog.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	hjson "github.com/hjson/hjson-go/v4"

	"github.com/calcore/recur/alog"
	"github.com/calcore/recur/atime/rrecur"
)

// Tunables holds the engine's adjustable defaults. All fields are
// optional in the source file; zero values fall back to the package's
// built-in defaults at Apply time.
type Tunables struct {
	// IterationBudget bounds the exclusion-retry loops in
	// Recurrence.GetNextDateTime/GetPreviousDateTime and rule-level
	// observance rescans. Must be >= 1 when set.
	IterationBudget int `json:"iterationBudget,omitempty" validate:"omitempty,min=1"`

	// DefaultWeekStart names a weekday that Apply stores for
	// DefaultWeekStart() to report. One of Sunday..Saturday.
	// rrecur.NewRecurrenceRule does not read it; an unset WeekStart there
	// always resolves to Monday.
	DefaultWeekStart string `json:"defaultWeekStart,omitempty" validate:"omitempty,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`

	// DefaultZone names an IANA zone that Apply stores for
	// DefaultZoneName() to report. StdTimeProvider does not read it; it
	// falls back to UTC.
	DefaultZone string `json:"defaultZone,omitempty" validate:"omitempty,timezone"`

	// LogDir is the directory file-based log channels write into. Required
	// only if a channel in LogChannels (or the built-in defaults) asks for
	// the file writer.
	LogDir string `json:"logDir,omitempty"`

	// LogChannels overrides the log level and/or writer types of the
	// built-in logging channels (app, auth, sql, http) by name.
	LogChannels alog.LogChannelConfigMap `json:"logChannels,omitempty"`
}

var weekdayByName = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

var timezoneValidator validator.Func = func(fl validator.FieldLevel) bool {
	zone := fl.Field().String()
	if zone == "" {
		return true
	}
	_, err := time.LoadLocation(zone)
	return err == nil
}

// stripComments removes // and /* */ comments from plain-JSON tunables
// files before they're unmarshaled.
func stripComments(input []byte) []byte {
	re := regexp.MustCompile(`(?m)//.*$|/\*[\s\S]*?\*/`)
	return re.ReplaceAll(input, []byte{})
}

func loadFileToMerge(path string, useHJSON bool) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if useHJSON {
		err = hjson.Unmarshal(data, &result)
	} else {
		err = json.Unmarshal(stripComments(data), &result)
	}
	return result, err
}

// LoadTunables reads and merges the given files in order (later files
// override earlier ones) and validates the result. Files ending in
// ".hjson" are parsed as HJSON; everything else as (comment-tolerant) JSON.
func LoadTunables(files ...string) (*Tunables, error) {
	if len(files) == 0 {
		return nil, errors.New("config: no tunables files provided")
	}

	merged := make(map[string]interface{})
	for _, f := range files {
		useHJSON := filepath.Ext(f) == ".hjson"
		current, err := loadFileToMerge(f, useHJSON)
		if err != nil {
			return nil, fmt.Errorf("config: failed to load %s: %w", f, err)
		}
		if err := mergo.Merge(&merged, current, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("config: failed to merge %s: %w", f, err)
		}
	}

	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("config: failed to marshal merged tunables: %w", err)
	}

	tunables := &Tunables{}
	if err := json.Unmarshal(encoded, tunables); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal tunables: %w", err)
	}

	if err := tunables.Validate(); err != nil {
		return nil, err
	}

	return tunables, nil
}

// Validate checks the tunables against their declared constraints.
func (t *Tunables) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("timezone", timezoneValidator); err != nil {
		return fmt.Errorf("config: failed to register timezone validator: %w", err)
	}
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("config: invalid tunables: %w", err)
	}
	return nil
}

// Apply pushes the tunables onto the rrecur package's process-wide
// settings. Zero-value fields are left at their current setting.
func (t *Tunables) Apply() error {
	if t.IterationBudget > 0 {
		rrecur.SetIterationBudget(t.IterationBudget)
	}
	if t.DefaultWeekStart != "" {
		wd, ok := weekdayByName[t.DefaultWeekStart]
		if !ok {
			return fmt.Errorf("config: unknown weekday %q", t.DefaultWeekStart)
		}
		SetDefaultWeekStart(wd)
	}
	if t.DefaultZone != "" {
		if _, err := time.LoadLocation(t.DefaultZone); err != nil {
			return fmt.Errorf("config: unknown zone %q: %w", t.DefaultZone, err)
		}
		SetDefaultZoneName(t.DefaultZone)
	}
	if err := initLogging(t.LogDir, t.LogChannels); err != nil {
		return fmt.Errorf("config: failed to initialize logging: %w", err)
	}
	return nil
}

var (
	defaultsMu       sync.RWMutex
	defaultWeekStart = time.Sunday
	defaultZoneName  = "UTC"
)

// DefaultWeekStart returns the process-wide default week-start weekday.
func DefaultWeekStart() time.Weekday {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultWeekStart
}

// SetDefaultWeekStart sets the process-wide default week-start weekday.
func SetDefaultWeekStart(wd time.Weekday) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultWeekStart = wd
}

// DefaultZoneName returns the process-wide default IANA zone name.
func DefaultZoneName() string {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultZoneName
}

// SetDefaultZoneName sets the process-wide default IANA zone name.
func SetDefaultZoneName(name string) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultZoneName = name
}

// Watcher watches a single tunables file and reapplies it whenever the
// file changes on disk.
type Watcher struct {
	path     string
	useHJSON bool
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
}

// WatchTunables starts watching path for changes, applying the tunables
// immediately and again on every subsequent write.
func WatchTunables(path string) (*Watcher, error) {
	tunables, err := LoadTunables(path)
	if err != nil {
		return nil, err
	}
	if err := tunables.Apply(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config: failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:     path,
		useHJSON: filepath.Ext(path) == ".hjson",
		watcher:  fsw,
		stopChan: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	base := filepath.Base(w.path)
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&fsnotify.Write == 0 && event.Op&fsnotify.Create == 0 {
				continue
			}
			tunables, err := LoadTunables(w.path)
			if err != nil {
				alog.LOGGER(alog.LOGGER_APP).Err(err).Msg("config: failed to reload tunables")
				continue
			}
			if err := tunables.Apply(); err != nil {
				alog.LOGGER(alog.LOGGER_APP).Err(err).Msg("config: failed to apply reloaded tunables")
				continue
			}
			alog.LOGGER(alog.LOGGER_APP).Info().Msg("config: reloaded tunables")
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			alog.LOGGER(alog.LOGGER_APP).Err(err).Msg("config: watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopChan)
	return w.watcher.Close()
}
