package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// fetchProgress renders one progress bar per fetch stage.
type fetchProgress struct {
	quiet bool
	out   io.Writer
	stage string
	bar   *progressbar.ProgressBar
}

func newFetchProgress(out io.Writer, quiet bool) *fetchProgress {
	return &fetchProgress{quiet: quiet, out: out}
}

// Update is an indexer.LoaderConfig Progress callback. Calls are serialised
// by the fetch pool.
func (p *fetchProgress) Update(stage string, done, total int) {
	if p.quiet {
		return
	}
	if stage != p.stage || p.bar == nil {
		p.Finish()
		p.stage = stage
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("Fetching "+stage),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(p.out)
			}),
		)
	}
	_ = p.bar.Set(done)
}

// Finish completes the current bar, if any.
func (p *fetchProgress) Finish() {
	if p.bar != nil && !p.bar.IsFinished() {
		_ = p.bar.Finish()
	}
	p.bar = nil
}
