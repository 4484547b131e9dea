package document

import (
	"iter"
	"path"
	"strconv"
	"strings"

	"github.com/nerdneilsfield/go-doc-translator/internal/document/xmltree"
)

const (
	pptxPresentationPart = "ppt/presentation.xml"
	pptxPresentationRels = "ppt/_rels/presentation.xml.rels"
	pptxSlideType        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
)

// Pptx is a PowerPoint presentation opened for run-level editing.
type Pptx struct {
	c      *container
	slides []pptxSlide
}

type pptxSlide struct {
	root  *xmltree.Node
	touch func()
}

// OpenPptx reads a .pptx file and parses every slide.
func OpenPptx(path string) (*Pptx, error) {
	c, err := openContainer(path)
	if err != nil {
		return nil, err
	}

	names := slideOrder(c)
	p := &Pptx{c: c}
	for _, name := range names {
		root, err := c.part(name)
		if err != nil {
			return nil, err
		}
		p.slides = append(p.slides, pptxSlide{root: root, touch: c.touch(name)})
	}
	return p, nil
}

// slideOrder returns slide part names in presentation order. It follows
// p:sldIdLst through the presentation relationships and falls back to the
// numeric order of the slide file names.
func slideOrder(c *container) []string {
	fallback := c.names("ppt/slides/slide*.xml")
	sortSlideNames(fallback)

	pres, err := c.part(pptxPresentationPart)
	if err != nil {
		return fallback
	}
	rels, err := c.part(pptxPresentationRels)
	if err != nil {
		return fallback
	}
	targets := make(map[string]string)
	for rel := range rels.Find("Relationship") {
		typ, _ := rel.Attr("Type")
		if typ != pptxSlideType {
			continue
		}
		id, _ := rel.Attr("Id")
		target, _ := rel.Attr("Target")
		if strings.HasPrefix(target, "/") {
			targets[id] = strings.TrimPrefix(target, "/")
		} else {
			targets[id] = path.Join("ppt", target)
		}
	}

	var ordered []string
	for sld := range pres.Find("p:sldId") {
		id, _ := sld.Attr("r:id")
		if name, ok := targets[id]; ok {
			ordered = append(ordered, name)
		}
	}
	if len(ordered) == 0 {
		return fallback
	}
	return ordered
}

// Paragraphs yields every a:p of every slide: shape text frames, table cells
// and grouped shapes alike.
func (p *Pptx) Paragraphs() iter.Seq[Paragraph] {
	return func(yield func(Paragraph) bool) {
		for _, slide := range p.slides {
			for para := range slide.root.Find("a:p") {
				if !yield(&pptxParagraph{node: para, touch: slide.touch}) {
					return
				}
			}
		}
	}
}

// Save writes the presentation to path.
func (p *Pptx) Save(path string) error {
	return p.c.save(path)
}

type pptxParagraph struct {
	node  *xmltree.Node
	touch func()
}

func (p *pptxParagraph) textRuns() []*xmltree.Node {
	var out []*xmltree.Node
	for el := range p.node.Elements() {
		if el.Name == "a:r" && pptxRunText(el) != "" {
			out = append(out, el)
		}
	}
	return out
}

func (p *pptxParagraph) Runs() []Run {
	nodes := p.textRuns()
	runs := make([]Run, 0, len(nodes))
	for _, r := range nodes {
		runs = append(runs, Run{Text: pptxRunText(r), Format: pptxFormatting(r.Child("a:rPr"))})
	}
	return runs
}

func (p *pptxParagraph) ReplaceRuns(runs []Run) {
	p.touch()
	at := -1
	for _, r := range p.textRuns() {
		i := p.node.Remove(r)
		if at < 0 {
			at = i
		}
	}
	if at < 0 {
		// a:endParaRPr must stay the last child.
		at = len(p.node.Children)
		for i, c := range p.node.Children {
			if c.Kind == xmltree.KindElement && c.Name == "a:endParaRPr" {
				at = i
				break
			}
		}
	}
	for i, r := range runs {
		p.node.Insert(at+i, newPptxRun(r))
	}
}

func pptxRunText(r *xmltree.Node) string {
	if t := r.Child("a:t"); t != nil {
		return t.InnerText()
	}
	return ""
}

func drawingBool(el *xmltree.Node, name string) *bool {
	v, ok := el.Attr(name)
	if !ok {
		return nil
	}
	return Ptr(v == "1" || v == "true")
}

func pptxFormatting(rPr *xmltree.Node) Formatting {
	var f Formatting
	if rPr == nil {
		return f
	}
	f.Bold = drawingBool(rPr, "b")
	f.Italic = drawingBool(rPr, "i")
	if u, ok := rPr.Attr("u"); ok {
		f.Underline = Ptr(u != "none")
	}
	if sz, ok := rPr.Attr("sz"); ok {
		if hundredths, err := strconv.ParseFloat(sz, 64); err == nil {
			f.Size = Ptr(hundredths / 100)
		}
	}
	if latin := rPr.Child("a:latin"); latin != nil {
		if face, ok := latin.Attr("typeface"); ok {
			f.Font = Ptr(face)
		}
	}
	if fill := rPr.Child("a:solidFill"); fill != nil {
		if clr := fill.Child("a:srgbClr"); clr != nil {
			if v, ok := clr.Attr("val"); ok && isHexColor(v) {
				f.Color = Ptr(strings.ToUpper(v))
			}
		}
	}
	return f
}

func newPptxRun(r Run) *xmltree.Node {
	run := xmltree.NewElement("a:r")
	if rPr := pptxRunProps(r.Format); rPr != nil {
		run.Append(rPr)
	}
	t := xmltree.NewElement("a:t")
	t.Append(xmltree.NewText(r.Text))
	run.Append(t)
	return run
}

func pptxRunProps(f Formatting) *xmltree.Node {
	rPr := xmltree.NewElement("a:rPr")
	if f.Bold != nil {
		rPr.SetAttr("b", boolAttr(*f.Bold))
	}
	if f.Italic != nil {
		rPr.SetAttr("i", boolAttr(*f.Italic))
	}
	if f.Underline != nil {
		u := "none"
		if *f.Underline {
			u = "sng"
		}
		rPr.SetAttr("u", u)
	}
	if f.Size != nil {
		rPr.SetAttr("sz", strconv.Itoa(int(*f.Size*100+0.5)))
	}
	// a:solidFill precedes a:latin in CT_TextCharacterProperties.
	if f.Color != nil {
		fill := xmltree.NewElement("a:solidFill")
		fill.Append(xmltree.NewElement("a:srgbClr", xmltree.Attr{Name: "val", Value: *f.Color}))
		rPr.Append(fill)
	}
	if f.Font != nil {
		rPr.Append(xmltree.NewElement("a:latin", xmltree.Attr{Name: "typeface", Value: *f.Font}))
	}

	if len(rPr.Attrs) == 0 && len(rPr.Children) == 0 {
		return nil
	}
	return rPr
}

func boolAttr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
