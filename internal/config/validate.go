package config

import (
	"fmt"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FieldError describes one rejected configuration value. The field keeps
// its documented default; the error is surfaced to the user naming the
// field and the accepted values.
type FieldError struct {
	Field    string
	Value    any
	Accepted string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("config: invalid %s value %q (accepted: %s)", e.Field, fmt.Sprint(e.Value), e.Accepted)
}

// signModeRule accepts "letter", "none", or exactly one glyph.
func signModeRule(value any) error {
	s, _ := value.(string)
	if s == SignModeLetter || s == SignModeNone {
		return nil
	}
	if utf8.RuneCountInString(s) == 1 {
		return nil
	}
	return fmt.Errorf("must be %q, %q, or a single glyph", SignModeLetter, SignModeNone)
}

// virtualTextRule accepts "", "letter", or a short glyph.
func virtualTextRule(value any) error {
	s, _ := value.(string)
	if s == "" || s == SignModeLetter {
		return nil
	}
	if utf8.RuneCountInString(s) <= 8 {
		return nil
	}
	return fmt.Errorf("must be empty, %q, or a short glyph", SignModeLetter)
}

// Validate checks every recognized field of opts. Invalid values are
// replaced with their documented defaults and reported; the returned
// Options are always safe to operate on.
func Validate(opts Options) (Options, []FieldError) {
	def := Default()
	var errs []FieldError

	reject := func(field string, value any, accepted string) {
		errs = append(errs, FieldError{Field: field, Value: value, Accepted: accepted})
	}

	if err := validation.Validate(opts.Sort,
		validation.Required,
		validation.In(SortLine, SortAlphabetical, SortRecency),
	); err != nil {
		reject("sort", opts.Sort, "line | alphabetical | recency")
		opts.Sort = def.Sort
	}

	if err := validation.Validate(opts.SignPrecedence,
		validation.Required,
		validation.In(PrecedenceUser, PrecedenceOther),
	); err != nil {
		reject("sign_precedence", opts.SignPrecedence, "user | other")
		opts.SignPrecedence = def.SignPrecedence
	}

	if err := validation.Validate(opts.SignMode,
		validation.Required,
		validation.By(signModeRule),
	); err != nil {
		reject("sign_mode", opts.SignMode, "letter | none | single glyph")
		opts.SignMode = def.SignMode
	}

	if err := validation.Validate(opts.VirtualText, validation.By(virtualTextRule)); err != nil {
		reject("virtual_text", opts.VirtualText, "empty | letter | short glyph")
		opts.VirtualText = def.VirtualText
	}

	if err := validation.Validate(opts.RefreshDelayMS, validation.Min(0), validation.Max(5000)); err != nil {
		reject("refresh_delay_ms", opts.RefreshDelayMS, "0..5000")
		opts.RefreshDelayMS = def.RefreshDelayMS
	}

	if err := validation.Validate(opts.LogLevel,
		validation.In("", "debug", "info", "warn", "error"),
	); err != nil {
		reject("log_level", opts.LogLevel, "debug | info | warn | error")
		opts.LogLevel = def.LogLevel
	}

	// Unknown builtin symbols are dropped rather than defaulted; there is
	// no sensible default placement for a symbol the collector will never
	// produce.
	for sym := range opts.Builtin {
		if _, ok := def.Builtin[sym]; !ok {
			reject("builtin."+sym, sym, "' | ^ | . | < | >")
			delete(opts.Builtin, sym)
		}
	}
	if opts.Builtin == nil {
		opts.Builtin = def.Builtin
	} else {
		// Fill in any symbols the file left unmentioned.
		for sym, bm := range def.Builtin {
			if _, ok := opts.Builtin[sym]; !ok {
				opts.Builtin[sym] = bm
			}
		}
	}

	if opts.Derived.Glyph == "" {
		opts.Derived.Glyph = def.Derived.Glyph
	}

	return opts, errs
}
