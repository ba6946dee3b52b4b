package rsbuild

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gookit/color"
)

func TestStageOutput_ArrowPrefix(t *testing.T) {
	var buf bytes.Buffer
	color.SetOutput(&buf)
	t.Cleanup(color.ResetOutput)

	stagePrintf(colSuccess, "Using %d compile job(s)\n", 4)
	stagePrintln(colWarn, "udevadm not found; reconnect the camera after a reboot")

	out := buf.String()
	if strings.Count(out, "-> ") != 2 {
		t.Errorf("every stage line must carry the arrow prefix, got:\n%s", out)
	}
	if !strings.Contains(out, "Using 4 compile job(s)") {
		t.Errorf("formatted stage message missing, got:\n%s", out)
	}
	if !strings.Contains(out, "udevadm not found") {
		t.Errorf("plain stage message missing, got:\n%s", out)
	}
}

func TestDebugf_GatedOnDebug(t *testing.T) {
	orig := Debug
	t.Cleanup(func() { Debug = orig })

	// Must not panic either way; output goes to stdout only when enabled.
	Debug = false
	debugf("invisible %s\n", "message")
	Debug = true
	debugf("visible %s\n", "message")
}
