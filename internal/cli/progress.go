package cli

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"

	"github.com/nerdneilsfield/go-doc-translator/internal/job"
)

// jobProgress 在终端显示单个作业的进度条
type jobProgress struct {
	pw      progress.Writer
	tracker *progress.Tracker
}

// newJobProgress 创建进度条并开始渲染
func newJobProgress(w io.Writer, filename string) *jobProgress {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(false)
	pw.SetStyle(progress.StyleDefault)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.Style().Colors = progress.StyleColorsExample
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Percentage = true

	tracker := &progress.Tracker{
		Message: filename,
		Total:   100,
		Units:   progress.UnitsDefault,
	}
	pw.AppendTracker(tracker)
	go pw.Render()

	return &jobProgress{pw: pw, tracker: tracker}
}

// observe 根据作业状态更新进度条
func (p *jobProgress) observe(j job.Job) {
	p.tracker.SetValue(int64(j.Progress * 100))
	if j.Message != "" {
		p.tracker.UpdateMessage(j.Message)
	}
}

// finish 标记结束并等待最后一帧渲染完成
func (p *jobProgress) finish(j job.Job) {
	if j.Status == job.StatusCompleted {
		p.tracker.SetValue(100)
		p.tracker.MarkAsDone()
	} else {
		p.tracker.MarkAsErrored()
	}
	p.pw.Stop()
	for p.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
