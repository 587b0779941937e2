package batch

import "testing"

func TestNopEventSinkDoesNotPanic(t *testing.T) {
	var sink EventSink = NopEventSink{}
	sink.Log(LevelInfo, "hello")
	sink.LogJob(LevelWarn, JobContext{Name: "a"}, "world")
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "debug",
		LevelInfo:  "info",
		LevelWarn:  "warn",
		LevelError: "error",
	}
	for level, want := range cases {
		assertEqual(t, level.String(), want)
	}
}
