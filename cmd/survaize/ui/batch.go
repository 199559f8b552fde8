package ui

import (
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// BatchProgress shows one bar per file of a batch conversion.
type BatchProgress struct {
	progress *mpb.Progress
}

func NewBatchProgress() *BatchProgress {
	return &BatchProgress{progress: mpb.New(mpb.WithWidth(40), mpb.WithOutput(stderr))}
}

// BatchBar tracks one file.
type BatchBar struct {
	bar *mpb.Bar
}

// AddBar adds a 0-100 bar labelled name.
func (b *BatchProgress) AddBar(name string) *BatchBar {
	bar := b.progress.AddBar(100,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 8}),
		),
	)
	return &BatchBar{bar: bar}
}

// Update sets the bar to percent.
func (b *BatchBar) Update(percent float64) {
	b.bar.SetCurrent(int64(clampPercent(percent)))
}

// Done completes the bar, or aborts it on failure.
func (b *BatchBar) Done(ok bool) {
	if ok {
		b.bar.SetCurrent(100)
		return
	}
	b.bar.Abort(false)
}

// Wait blocks until every bar has finished rendering.
func (b *BatchProgress) Wait() {
	b.progress.Wait()
}
