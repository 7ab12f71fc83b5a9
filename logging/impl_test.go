package logging

import (
	"testing"

	"go.viam.com/test"
)

func TestSubloggerNaming(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	elevator := logger.Sublogger("superstructure").Sublogger("elevator")
	elevator.Infow("setpoint rejected", "requested", 1.5)

	test.That(t, logs.Len(), test.ShouldEqual, 1)
	entry := logs.All()[0]
	test.That(t, entry.LoggerName, test.ShouldEqual, "superstructure.elevator")
	test.That(t, entry.Message, test.ShouldEqual, "setpoint rejected")
	test.That(t, entry.ContextMap()["requested"], test.ShouldEqual, 1.5)
}

func TestSubloggerLevelIsIndependent(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("pivot")

	sub.SetLevel(WARN)
	sub.Info("dropped")
	logger.Info("kept")
	sub.Warn("kept too")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	test.That(t, sub.GetLevel(), test.ShouldEqual, WARN)
	test.That(t, logs.FilterMessage("dropped").Len(), test.ShouldEqual, 0)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"warn", WARN},
		{"error", ERROR},
	} {
		t.Run(tc.in, func(t *testing.T) {
			level, err := LevelFromString(tc.in)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, level, test.ShouldEqual, tc.expected)
			test.That(t, levelFromZap(level.AsZap()), test.ShouldEqual, tc.expected)
		})
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
}
