package test

import (
	"iter"

	"github.com/nerdneilsfield/go-doc-translator/internal/document"
)

// FakeParagraph 是内存中的段落实现
type FakeParagraph struct {
	runs     []document.Run
	Replaced int
}

// NewFakeParagraph 用给定的 runs 创建段落
func NewFakeParagraph(runs ...document.Run) *FakeParagraph {
	return &FakeParagraph{runs: runs}
}

// PlainParagraph 创建只包含无格式文本的段落，每个参数一个 run
func PlainParagraph(texts ...string) *FakeParagraph {
	p := &FakeParagraph{}
	for _, t := range texts {
		p.runs = append(p.runs, document.Run{Text: t})
	}
	return p
}

// Runs 返回当前 runs
func (p *FakeParagraph) Runs() []document.Run {
	return append([]document.Run(nil), p.runs...)
}

// ReplaceRuns 替换全部 runs
func (p *FakeParagraph) ReplaceRuns(runs []document.Run) {
	p.runs = append([]document.Run(nil), runs...)
	p.Replaced++
}

// FakeDocument 是内存中的文档实现
type FakeDocument struct {
	Paras   []*FakeParagraph
	SavedTo []string
	SaveErr error
}

// Paragraphs 按顺序返回段落
func (d *FakeDocument) Paragraphs() iter.Seq[document.Paragraph] {
	return func(yield func(document.Paragraph) bool) {
		for _, p := range d.Paras {
			if !yield(p) {
				return
			}
		}
	}
}

// Save 记录保存路径
func (d *FakeDocument) Save(path string) error {
	if d.SaveErr != nil {
		return d.SaveErr
	}
	d.SavedTo = append(d.SavedTo, path)
	return nil
}

// Opener 返回总是打开该文档的 Opener
func (d *FakeDocument) Opener() document.Opener {
	return document.OpenerFunc(func(string) (document.Document, error) {
		return d, nil
	})
}
