package document

import (
	"iter"
	"strconv"
	"strings"

	"github.com/nerdneilsfield/go-doc-translator/internal/document/xmltree"
)

const docxMainPart = "word/document.xml"

// highlightIndex maps ST_HighlightColor names to Word colour index values
// (WD_COLOR_INDEX). "default" and "none" mean no highlight and are not listed.
var highlightIndex = map[string]int{
	"black":       1,
	"blue":        2,
	"cyan":        3,
	"green":       4,
	"magenta":     5,
	"red":         6,
	"yellow":      7,
	"white":       8,
	"darkBlue":    9,
	"darkCyan":    10,
	"darkGreen":   11,
	"darkMagenta": 12,
	"darkRed":     13,
	"darkYellow":  14,
	"darkGray":    15,
	"lightGray":   16,
}

var highlightNames = make(map[int]string, len(highlightIndex))

func init() {
	for name, i := range highlightIndex {
		highlightNames[i] = name
	}
}

// HighlightName returns the WordprocessingML name of a colour index.
func HighlightName(index int) (string, bool) {
	name, ok := highlightNames[index]
	return name, ok
}

// Docx is a Word document opened for run-level editing.
type Docx struct {
	c     *container
	root  *xmltree.Node
	touch func()
}

// OpenDocx reads a .docx file.
func OpenDocx(path string) (*Docx, error) {
	c, err := openContainer(path)
	if err != nil {
		return nil, err
	}
	root, err := c.part(docxMainPart)
	if err != nil {
		return nil, err
	}
	return &Docx{c: c, root: root, touch: c.touch(docxMainPart)}, nil
}

// Paragraphs yields body paragraphs, including those in (nested) table cells,
// in document order.
func (d *Docx) Paragraphs() iter.Seq[Paragraph] {
	return func(yield func(Paragraph) bool) {
		body := d.body()
		if body == nil {
			return
		}
		for p := range body.Find("w:p") {
			if !yield(&docxParagraph{node: p, touch: d.touch}) {
				return
			}
		}
	}
}

// Save writes the document to path.
func (d *Docx) Save(path string) error {
	return d.c.save(path)
}

func (d *Docx) body() *xmltree.Node {
	doc := d.root.Child("w:document")
	if doc == nil {
		return nil
	}
	return doc.Child("w:body")
}

type docxParagraph struct {
	node  *xmltree.Node
	touch func()
}

func (p *docxParagraph) textRuns() []*xmltree.Node {
	var out []*xmltree.Node
	for el := range p.node.Elements() {
		if el.Name == "w:r" && docxRunText(el) != "" {
			out = append(out, el)
		}
	}
	return out
}

func (p *docxParagraph) Runs() []Run {
	nodes := p.textRuns()
	runs := make([]Run, 0, len(nodes))
	for _, r := range nodes {
		runs = append(runs, Run{Text: docxRunText(r), Format: docxFormatting(r.Child("w:rPr"))})
	}
	return runs
}

// ReplaceRuns removes the text runs and inserts the new ones where the first
// of them was. Runs without text (drawings, field markers) stay in place.
func (p *docxParagraph) ReplaceRuns(runs []Run) {
	p.touch()
	at := -1
	for _, r := range p.textRuns() {
		i := p.node.Remove(r)
		if at < 0 {
			at = i
		}
	}
	if at < 0 {
		at = len(p.node.Children)
	}
	for i, r := range runs {
		p.node.Insert(at+i, newDocxRun(r))
	}
}

func docxRunText(r *xmltree.Node) string {
	var sb strings.Builder
	for el := range r.Elements() {
		switch el.Name {
		case "w:t":
			sb.WriteString(el.InnerText())
		case "w:tab", "w:ptab":
			sb.WriteByte('\t')
		case "w:br", "w:cr":
			sb.WriteByte('\n')
		case "w:noBreakHyphen":
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// onOff reads a ST_OnOff toggle element such as <w:b/> or <w:b w:val="0"/>.
func onOff(el *xmltree.Node) *bool {
	if el == nil {
		return nil
	}
	v, ok := el.Attr("w:val")
	if !ok {
		return Ptr(true)
	}
	switch v {
	case "0", "false", "off":
		return Ptr(false)
	default:
		return Ptr(true)
	}
}

func docxFormatting(rPr *xmltree.Node) Formatting {
	var f Formatting
	if rPr == nil {
		return f
	}
	f.Bold = onOff(rPr.Child("w:b"))
	f.Italic = onOff(rPr.Child("w:i"))
	if u := rPr.Child("w:u"); u != nil {
		v, _ := u.Attr("w:val")
		f.Underline = Ptr(v != "none")
	}
	if fonts := rPr.Child("w:rFonts"); fonts != nil {
		if name, ok := fonts.Attr("w:ascii"); ok {
			f.Font = Ptr(name)
		}
	}
	if sz := rPr.Child("w:sz"); sz != nil {
		if v, ok := sz.Attr("w:val"); ok {
			if half, err := strconv.ParseFloat(v, 64); err == nil {
				f.Size = Ptr(half / 2)
			}
		}
	}
	if c := rPr.Child("w:color"); c != nil {
		if v, ok := c.Attr("w:val"); ok && isHexColor(v) {
			f.Color = Ptr(strings.ToUpper(v))
		}
	}
	if h := rPr.Child("w:highlight"); h != nil {
		v, _ := h.Attr("w:val")
		if idx, ok := highlightIndex[v]; ok {
			f.Highlight = Ptr(idx)
		}
	}
	return f
}

func newDocxRun(r Run) *xmltree.Node {
	run := xmltree.NewElement("w:r")
	if rPr := docxRunProps(r.Format); rPr != nil {
		run.Append(rPr)
	}

	// Tabs and line breaks are elements of their own in WordprocessingML.
	var text strings.Builder
	flush := func() {
		if text.Len() == 0 {
			return
		}
		t := xmltree.NewElement("w:t", xmltree.Attr{Name: "xml:space", Value: "preserve"})
		t.Append(xmltree.NewText(text.String()))
		run.Append(t)
		text.Reset()
	}
	for _, ch := range r.Text {
		switch ch {
		case '\t':
			flush()
			run.Append(xmltree.NewElement("w:tab"))
		case '\n':
			flush()
			run.Append(xmltree.NewElement("w:br"))
		case '\r':
		default:
			text.WriteRune(ch)
		}
	}
	flush()
	return run
}

func docxRunProps(f Formatting) *xmltree.Node {
	rPr := xmltree.NewElement("w:rPr")

	// Children follow the CT_RPr sequence order.
	if f.Font != nil {
		rPr.Append(xmltree.NewElement("w:rFonts",
			xmltree.Attr{Name: "w:ascii", Value: *f.Font},
			xmltree.Attr{Name: "w:hAnsi", Value: *f.Font},
		))
	}
	if f.Bold != nil {
		rPr.Append(toggle("w:b", *f.Bold))
	}
	if f.Italic != nil {
		rPr.Append(toggle("w:i", *f.Italic))
	}
	if f.Color != nil {
		rPr.Append(xmltree.NewElement("w:color", xmltree.Attr{Name: "w:val", Value: *f.Color}))
	}
	if f.Size != nil {
		half := strconv.FormatFloat(*f.Size*2, 'f', -1, 64)
		rPr.Append(xmltree.NewElement("w:sz", xmltree.Attr{Name: "w:val", Value: half}))
	}
	if f.Highlight != nil {
		if name, ok := HighlightName(*f.Highlight); ok {
			rPr.Append(xmltree.NewElement("w:highlight", xmltree.Attr{Name: "w:val", Value: name}))
		}
	}
	if f.Underline != nil {
		val := "none"
		if *f.Underline {
			val = "single"
		}
		rPr.Append(xmltree.NewElement("w:u", xmltree.Attr{Name: "w:val", Value: val}))
	}

	if len(rPr.Children) == 0 {
		return nil
	}
	return rPr
}

func toggle(name string, on bool) *xmltree.Node {
	if on {
		return xmltree.NewElement(name)
	}
	return xmltree.NewElement(name, xmltree.Attr{Name: "w:val", Value: "0"})
}

func isHexColor(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
