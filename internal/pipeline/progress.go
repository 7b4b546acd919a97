package pipeline

import "log/slog"

// progress wraps a Status message with suppression of redundant edits.
//
// Some messaging backends reject an edit whose text equals the current
// text, so identical consecutive reports are dropped before they reach the
// wire. Edit failures are cosmetic and never affect the job: they are
// logged and swallowed. A nil progress (single-chunk jobs have none) makes
// every method a no-op.
type progress struct {
	status Status
	last   string
	logger *slog.Logger
}

func newProgress(status Status, logger *slog.Logger) *progress {
	return &progress{status: status, logger: logger}
}

// report edits the status message, unless text matches the last report.
func (p *progress) report(text string) {
	if p == nil || p.status == nil {
		return
	}
	if text == p.last {
		return
	}
	p.last = text
	if err := p.status.Edit(text); err != nil {
		p.logger.Warn("failed to edit progress message", "error", err)
	}
}

// delete removes the status message. Called only on successful delivery;
// on failure the message stays, edited into the failure notice.
func (p *progress) delete() {
	if p == nil || p.status == nil {
		return
	}
	if err := p.status.Delete(); err != nil {
		p.logger.Debug("failed to delete progress message", "error", err)
	}
}
