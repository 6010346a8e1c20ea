// Package config defines the validated options surface for Marksman.
//
// Options arrive from a TOML or YAML file (or programmatically from the
// embedding host), are validated field by field, and invalid values are
// replaced with documented defaults while the offending field is reported.
// The rest of the system never operates on an unvalidated value.
package config

import "time"

// Sort strategy names.
const (
	SortLine         = "line"
	SortAlphabetical = "alphabetical"
	SortRecency      = "recency"
)

// Sign mode names. Any other single-glyph string is treated as a custom
// sign glyph shared by all user marks.
const (
	SignModeLetter = "letter"
	SignModeNone   = "none"
)

// Sign precedence when a user mark and a built-in/derived mark share a line.
const (
	PrecedenceUser  = "user"
	PrecedenceOther = "other"
)

// Built-in mark identifiers recognized by the collector.
const (
	BuiltinLastJump   = "'"
	BuiltinLastInsert = "^"
	BuiltinLastChange = "."
	BuiltinSelStart   = "<"
	BuiltinSelEnd     = ">"
)

// BuiltinMark configures one built-in positional mark type.
type BuiltinMark struct {
	// Enabled includes this built-in mark in collection and rendering.
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// Glyph is the sign-column glyph for this mark.
	Glyph string `toml:"glyph" yaml:"glyph"`

	// ShowInPicker includes this mark in picker entries.
	ShowInPicker bool `toml:"show_in_picker" yaml:"show_in_picker"`
}

// DerivedMarks configures pseudo-marks sourced from an external tool
// (version-control change hunks).
type DerivedMarks struct {
	// Enabled turns hunk-derived marks on.
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// Glyph is the sign-column glyph for derived marks.
	Glyph string `toml:"glyph" yaml:"glyph"`

	// ShowInPicker includes derived marks in picker entries.
	ShowInPicker bool `toml:"show_in_picker" yaml:"show_in_picker"`
}

// Options is the full configuration surface.
type Options struct {
	// Enabled is the global Night Vision default for newly entered buffers.
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// LineHighlight applies a background highlight to marked lines.
	LineHighlight bool `toml:"line_highlight" yaml:"line_highlight"`

	// LineNumberHighlight recolors the line number of marked lines.
	LineNumberHighlight bool `toml:"line_number_highlight" yaml:"line_number_highlight"`

	// SignMode is "letter", "none", or a single custom glyph.
	SignMode string `toml:"sign_mode" yaml:"sign_mode"`

	// VirtualText is the trailing virtual-text glyph. Empty disables the
	// channel; "letter" echoes the mark's own identifier.
	VirtualText string `toml:"virtual_text" yaml:"virtual_text"`

	// Sort selects the single active ordering strategy.
	Sort string `toml:"sort" yaml:"sort"`

	// Quiet suppresses informational notifications. Warnings and errors
	// are always delivered.
	Quiet bool `toml:"quiet" yaml:"quiet"`

	// SignPrecedence decides the sign-column winner when a user mark and
	// a built-in/derived mark share a line.
	SignPrecedence string `toml:"sign_precedence" yaml:"sign_precedence"`

	// NavigateAllKinds includes built-in and derived marks as jump
	// targets for next/previous navigation.
	NavigateAllKinds bool `toml:"navigate_all_kinds" yaml:"navigate_all_kinds"`

	// RefreshDelayMS is the settle delay after a buffer becomes active
	// before the first decoration refresh.
	RefreshDelayMS int `toml:"refresh_delay_ms" yaml:"refresh_delay_ms"`

	// Builtin configures built-in marks individually, keyed by symbol.
	Builtin map[string]BuiltinMark `toml:"builtin" yaml:"builtin"`

	// Derived configures hunk-derived pseudo-marks.
	Derived DerivedMarks `toml:"derived" yaml:"derived"`

	// ExcludeCategories lists buffer categories Night Vision never
	// touches (such buffers stay permanently inert).
	ExcludeCategories []string `toml:"exclude_categories" yaml:"exclude_categories"`

	// ExcludeFileTypes lists file types Night Vision never touches.
	ExcludeFileTypes []string `toml:"exclude_filetypes" yaml:"exclude_filetypes"`

	// StateDir overrides the directory for persisted mark metadata.
	// Empty selects a default under the user's state directory.
	StateDir string `toml:"state_dir" yaml:"state_dir"`

	// ScriptPath points at an optional Lua hook file.
	ScriptPath string `toml:"script" yaml:"script"`

	// LogLevel sets the minimum log level (debug, info, warn, error).
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Default returns the documented default options.
func Default() Options {
	return Options{
		Enabled:             true,
		LineHighlight:       true,
		LineNumberHighlight: false,
		SignMode:            SignModeLetter,
		VirtualText:         "",
		Sort:                SortLine,
		Quiet:               false,
		SignPrecedence:      PrecedenceUser,
		NavigateAllKinds:    false,
		RefreshDelayMS:      150,
		Builtin: map[string]BuiltinMark{
			BuiltinLastJump:   {Enabled: false, Glyph: "'", ShowInPicker: false},
			BuiltinLastInsert: {Enabled: false, Glyph: "^", ShowInPicker: false},
			BuiltinLastChange: {Enabled: false, Glyph: ".", ShowInPicker: false},
			BuiltinSelStart:   {Enabled: false, Glyph: "<", ShowInPicker: false},
			BuiltinSelEnd:     {Enabled: false, Glyph: ">", ShowInPicker: false},
		},
		Derived: DerivedMarks{
			Enabled:      false,
			Glyph:        "~",
			ShowInPicker: false,
		},
		ExcludeCategories: []string{"help", "terminal", "prompt"},
		ExcludeFileTypes:  nil,
		LogLevel:          "info",
	}
}

// RefreshDelay returns the settle delay as a duration.
func (o Options) RefreshDelay() time.Duration {
	return time.Duration(o.RefreshDelayMS) * time.Millisecond
}

// ExcludesCategory reports whether the buffer category is excluded.
func (o Options) ExcludesCategory(category string) bool {
	for _, c := range o.ExcludeCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ExcludesFileType reports whether the file type is excluded.
func (o Options) ExcludesFileType(ft string) bool {
	if ft == "" {
		return false
	}
	for _, f := range o.ExcludeFileTypes {
		if f == ft {
			return true
		}
	}
	return false
}
