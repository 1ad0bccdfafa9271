// Package config holds the named options that steer a conversion and the
// configuration file they are loaded from.
package config

import (
	"strconv"
	"strings"
	"sync"

	"github.com/xyproto/env/v2"
)

// Option keys.
const (
	ErrorLabel           = "error-label"
	NoAssertions         = "no-assertions"
	AtomicityCheck       = "atomicity-check"
	ControlFlowTest      = "control-flow-test"
	DeadlockCheck        = "deadlock-check"
	DisableInductiveStep = "disable-inductive-step"
	InductiveStep        = "inductive-step"
	BaseCase             = "base-case"
	ForwardCondition     = "forward-condition"
	KInductionAllStates  = "k-induction-all-states"
)

// Keys lists every recognized option.
var Keys = []string{
	ErrorLabel,
	NoAssertions,
	AtomicityCheck,
	ControlFlowTest,
	DeadlockCheck,
	DisableInductiveStep,
	InductiveStep,
	BaseCase,
	ForwardCondition,
	KInductionAllStates,
}

// EnvPrefix prefixes the environment variables that override options.
const EnvPrefix = "GOTOCONV_"

// Options is a set of named string options. Boolean options are stored as
// "1" or "true". Options are safe for concurrent use: conversions of
// different files share one instance and may disable k-induction for the
// whole run.
type Options struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewOptions() *Options {
	return &Options{values: make(map[string]string)}
}

func (o *Options) Get(key string) string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.values[key]
}

func (o *Options) Set(key, value string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[key] = value
}

func (o *Options) Bool(key string) bool {
	return parseBool(o.Get(key))
}

func (o *Options) SetBool(key string, value bool) {
	if value {
		o.Set(key, "1")
		return
	}
	o.Set(key, "")
}

// Snapshot returns a copy of the current values.
func (o *Options) Snapshot() map[string]string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]string, len(o.values))
	for k, v := range o.values {
		out[k] = v
	}
	return out
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// ApplyEnv overrides options from GOTOCONV_* environment variables.
func (o *Options) ApplyEnv() {
	for _, key := range Keys {
		name := EnvName(key)
		if !env.Has(name) {
			continue
		}
		if key == ErrorLabel {
			o.Set(key, env.Str(name))
			continue
		}
		o.SetBool(key, env.Bool(name))
	}
}

func parseBool(s string) bool {
	if s == "" {
		return false
	}
	if s == "1" {
		return true
	}
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
