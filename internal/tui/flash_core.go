package tui

import (
	"slices"

	"go.uber.org/zap/zapcore"
)

// flashCore is a zap core that hands each enabled entry, with the text of its
// error fields appended, to show.
type flashCore struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
	show   func(level zapcore.Level, msg string)
}

func newFlashCore(enab zapcore.LevelEnabler, show func(zapcore.Level, string)) zapcore.Core {
	return &flashCore{LevelEnabler: enab, show: show}
}

func (c *flashCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = slices.Concat(c.fields, fields)
	return &clone
}

func (c *flashCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *flashCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	msg := ent.Message
	for _, f := range slices.Concat(c.fields, fields) {
		if err, ok := f.Interface.(error); ok && f.Type == zapcore.ErrorType {
			msg += ": " + err.Error()
		}
	}
	c.show(ent.Level, msg)
	return nil
}

func (c *flashCore) Sync() error { return nil }
