// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package patch

import (
	"io"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the (decoded) contents of a patch set file.
type Config struct {
	// Options controlling how the patch set is applied.
	Options Options `mapstructure:"options"`
	// Symbols holds additional declarations (in listing syntax) for routines
	// and fields referenced by rules, but not declared by the listing itself
	// (e.g. replacement routines).
	Symbols []string `mapstructure:"symbols"`
	// Patches to apply, in order.
	Patches []PatchConfig `mapstructure:"patches"`
}

// Options controlling how a patch set is applied.
type Options struct {
	// Strict treats rules which never match, captures which are never
	// replayed and patches whose target has no body as problems.
	Strict bool `mapstructure:"strict"`
	// Verify checks every rewritten body with il.Verify.
	Verify bool `mapstructure:"verify"`
}

// PatchConfig describes the rules applied to a single target routine.
type PatchConfig struct {
	Name   string       `mapstructure:"name"`
	Target string       `mapstructure:"target"`
	Rules  []RuleConfig `mapstructure:"rules"`
}

// RuleConfig describes a single rewrite rule.  Exactly one of Redirect,
// ReplaceCalls, Relocate or Match must be given.  Instruction patterns are
// written as "*" (any instruction), a bare mnemonic (any operand), a complete
// instruction, or any of these prefixed with "!" (negation).
type RuleConfig struct {
	Name string `mapstructure:"name"`
	// Redirect the target of matching calls, keeping the opcode.
	Redirect *CallConfig `mapstructure:"redirect"`
	// Substitute every call, checking signatures are compatible.
	ReplaceCalls *CallConfig `mapstructure:"replace-calls"`
	// Capture a span and replay it after a marker.
	Relocate *RelocateConfig `mapstructure:"relocate"`
	// Match a window of instructions, editing each occurrence.
	Match []string `mapstructure:"match"`
	// Replace the operand of a matched instruction.
	Operand *OperandConfig `mapstructure:"operand"`
	// Instructions to emit before each match.
	Before []string `mapstructure:"before"`
	// Instructions to emit in place of each match.
	Replace []string `mapstructure:"replace"`
	// Instructions to emit after each match.
	After []string `mapstructure:"after"`
	// Drop each match.
	Delete bool `mapstructure:"delete"`
}

// CallConfig identifies a routine to be called instead of another.
type CallConfig struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// RelocateConfig describes a span to capture and the marker after which it is
// replayed.
type RelocateConfig struct {
	Span   []string `mapstructure:"span"`
	Marker string   `mapstructure:"marker"`
}

// OperandConfig replaces the operand of the instruction at a given slot of a
// match.  The value is interpreted according to the opcode at that slot.
type OperandConfig struct {
	Slot  uint `mapstructure:"slot"`
	Value any  `mapstructure:"value"`
}

// LoadConfig reads a patch set from a file (YAML, JSON or TOML, determined by
// the file extension).  Options can be overridden through the environment
// variables TRANSPILE_STRICT and TRANSPILE_VERIFY.
func LoadConfig(filename string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(filename)
	//
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading patch set %s", filename)
	}
	//
	return decodeConfig(v)
}

// ReadConfig reads a patch set in a given format ("yaml", "json" or "toml").
func ReadConfig(r io.Reader, format string) (*Config, error) {
	v := newViper()
	v.SetConfigType(format)
	//
	if err := v.ReadConfig(r); err != nil {
		return nil, errors.Wrap(err, "reading patch set")
	}
	//
	return decodeConfig(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("options.strict", false)
	v.SetDefault("options.verify", false)
	//nolint:errcheck
	v.BindEnv("options.strict", "TRANSPILE_STRICT")
	//nolint:errcheck
	v.BindEnv("options.verify", "TRANSPILE_VERIFY")
	//
	return v
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	//
	hook := viper.DecodeHook(mapstructure.DecodeHookFuncType(stringToSingletonHook))
	//
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, errors.Wrap(err, "decoding patch set")
	}
	//
	return &cfg, nil
}

// Allows a single pattern or instruction to be written where a list is
// expected, without splitting on commas (which appear in parameter lists).
func stringToSingletonHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to.Kind() == reflect.Slice && to.Elem().Kind() == reflect.String {
		return []string{data.(string)}, nil
	}
	//
	return data, nil
}
