package sqlcore

import (
	"context"
	"testing"
)

func TestNoopLoggerDiscardsEverything(t *testing.T) {
	l := defaultLogger()
	ctx := context.Background()

	// These must not panic regardless of args shape.
	l.InfoContext(ctx, "info", "k", "v")
	l.WarnContext(ctx, "warn")
	l.ErrorContext(ctx, "error", "err", nil)
}

func TestNoopTxLoggerReportsDisabled(t *testing.T) {
	var l TxLogger = noopTxLogger{}
	if l.IsEnable() {
		t.Error("noopTxLogger.IsEnable() should be false")
	}
	l.DoLog("should be discarded")
}
