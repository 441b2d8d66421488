package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_DoesNotPanic(t *testing.T) {
	Init(false, false)
	log := L()
	log.Info().Msg("test json info")
	log.Debug().Msg("test json debug (should not appear at info level)")

	Init(true, false)
	log = L()
	log.Debug().Msg("test json debug (should appear)")
	if IsPrettyMode() {
		t.Error("IsPrettyMode = true after Init(true, false)")
	}

	Init(false, true)
	log = L()
	log.Info().Msg("test human info")
	if !IsPrettyMode() {
		t.Error("IsPrettyMode = false after Init(false, true)")
	}

	Init(false, false)
}

func TestWithCommand(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	log := WithCommand("inspect")
	log.Info().Msg("test message")

	if !bytes.Contains(buf.Bytes(), []byte(`"command":"inspect"`)) {
		t.Errorf("expected command field in output, got: %s", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	customLogger := zerolog.New(&buf).With().Str("custom", "field").Logger()
	SetLogger(customLogger)

	L().Info().Msg("test")

	if !bytes.Contains(buf.Bytes(), []byte(`"custom":"field"`)) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}
}
