package logger

import "testing"

func TestInitAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := Init(level); err != nil {
			t.Fatalf("Init(%q) returned error: %v", level, err)
		}
	}
}

func TestInitFallsBackOnUnknownLevel(t *testing.T) {
	if err := Init("chatty"); err != nil {
		t.Fatalf("expected fallback to info, got error: %v", err)
	}

	if Logger() == nil {
		t.Fatal("expected a non-nil global logger")
	}
}

func TestWithModuleReturnsChild(t *testing.T) {
	if WithModule("verification") == nil {
		t.Fatal("expected a child logger")
	}
}
