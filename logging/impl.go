package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// impl filters a shared sink core through its own atomic level. Subloggers share the sink
// but not the level.
type impl struct {
	*zap.SugaredLogger

	name  string
	level zap.AtomicLevel
	sink  zapcore.Core
}

func newImpl(name string, level Level, sink zapcore.Core) *impl {
	imp := &impl{
		name:  name,
		level: zap.NewAtomicLevelAt(level.AsZap()),
		sink:  sink,
	}
	imp.SugaredLogger = imp.build()
	return imp
}

func (imp *impl) build() *zap.SugaredLogger {
	core, err := zapcore.NewIncreaseLevelCore(imp.sink, imp.level)
	if err != nil {
		// The sink always enables debug, so this only trips on a misconfigured sink. Fall back
		// to the sink itself rather than dropping logs.
		core = imp.sink
	}
	logger := zap.New(core, zap.AddCaller())
	if imp.name != "" {
		logger = logger.Named(imp.name)
	}
	return logger.Sugar()
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return newImpl(newName, imp.GetLevel(), imp.sink)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	return levelFromZap(imp.level.Level())
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.SugaredLogger
}

func (imp *impl) Sync() error {
	return imp.sink.Sync()
}
