package gatelab

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, "FinFET Viewer", false)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Infof("loaded %s", "model")
	l.Warnf("missing %s", "Gate")
	l.Errorf("boom")
	assert.Equal(t,
		"[FinFET Viewer] INFO: loaded model\n"+
			"[FinFET Viewer] WARN: missing Gate\n"+
			"[FinFET Viewer] ERROR: boom\n",
		buf.String())

	buf.Reset()
	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown")
	assert.Equal(t, "[FinFET Viewer] DEBUG: shown\n", buf.String())
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, "", true)
	l := WithPrefix(base, "MOSFET Viewer")
	l.Errorf("no container")
	assert.Equal(t, "ERROR: [MOSFET Viewer] no container\n", buf.String())

	assert.Same(t, base, WithPrefix(base, ""))
	assert.NotNil(t, WithPrefix(nil, "x"))
}

func TestLoggingModule(t *testing.T) {
	var buf bytes.Buffer
	app := NewAppBuilder().UseModule(LoggingModule{Prefix: "sys", Logger: NewWriterLogger(&buf, "", false)}).Build()
	app.Logger().Warnf("careful")
	assert.Equal(t, "WARN: [sys] careful\n", buf.String())
}
