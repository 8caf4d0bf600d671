package pptx

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"github.com/okian/recapdeck/internal/domain/binding"
)

// Slide is one parsed slide part.
type Slide struct {
	index    int
	part     string
	data     []byte
	shapes   []*Shape
	pictures []*picture
	runs     []*Run
	rels     map[string]string
}

// Index is the zero-based position in presentation order.
func (s *Slide) Index() int { return s.index }

// Part is the package part name, e.g. ppt/slides/slide4.xml.
func (s *Slide) Part() string { return s.part }

// Shapes returns the text shapes in document order, groups flattened.
func (s *Slide) Shapes() []*Shape { return append([]*Shape(nil), s.shapes...) }

// Shape returns the first shape named name.
func (s *Slide) Shape(name string) (*Shape, bool) {
	for _, sh := range s.shapes {
		if sh.name == name {
			return sh, true
		}
	}
	return nil, false
}

// Shape is a named p:sp with its text body.
type Shape struct {
	name       string
	paragraphs []*Paragraph
}

// Name is the cNvPr name of the shape.
func (sh *Shape) Name() string { return sh.name }

// Paragraphs implements binding.Region.
func (sh *Shape) Paragraphs() []binding.Paragraph {
	out := make([]binding.Paragraph, len(sh.paragraphs))
	for i, p := range sh.paragraphs {
		out[i] = p
	}
	return out
}

// Text joins the paragraph texts with newlines.
func (sh *Shape) Text() string {
	lines := make([]string, len(sh.paragraphs))
	for i, p := range sh.paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

// piece is a paragraph fragment: an editable run or fixed text from fields
// and line breaks.
type piece struct {
	run  *Run
	text string
}

// Paragraph is an a:p element.
type Paragraph struct {
	pieces []piece
	runs   []*Run
}

// Text is the current paragraph text including field values.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, pc := range p.pieces {
		if pc.run != nil {
			b.WriteString(pc.run.text)
		} else {
			b.WriteString(pc.text)
		}
	}
	return b.String()
}

// Runs implements binding.Paragraph.
func (p *Paragraph) Runs() []binding.Run {
	out := make([]binding.Run, len(p.runs))
	for i, r := range p.runs {
		out[i] = r
	}
	return out
}

// Run is the a:t text of an a:r. start and end delimit the bytes replaced
// on render: the element content, or the whole element when self-closing.
type Run struct {
	start, end  int
	selfClosing bool
	orig        string
	text        string
}

// Text returns the current run text.
func (r *Run) Text() string { return r.text }

// SetText replaces the run text.
func (r *Run) SetText(s string) { r.text = s }

func (r *Run) changed() bool { return r.text != r.orig }

func (s *Slide) dirty() bool {
	for _, r := range s.runs {
		if r.changed() {
			return true
		}
	}
	return false
}

// render splices changed run texts into the original slide bytes.
func (s *Slide) render() []byte {
	edits := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		if r.changed() {
			edits = append(edits, r)
		}
	}
	if len(edits) == 0 {
		return s.data
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var buf bytes.Buffer
	buf.Grow(len(s.data) + 256)
	last := 0
	for _, r := range edits {
		buf.Write(s.data[last:r.start])
		if r.selfClosing {
			open, closing := expandTag(s.data[r.start:r.end])
			buf.Write(open)
			_ = xml.EscapeText(&buf, []byte(r.text))
			buf.Write(closing)
		} else {
			_ = xml.EscapeText(&buf, []byte(r.text))
		}
		last = r.end
	}
	buf.Write(s.data[last:])
	return buf.Bytes()
}

// expandTag turns <a:t .../> into its open and close tags.
func expandTag(raw []byte) (open, closing []byte) {
	body := bytes.TrimRight(bytes.TrimSuffix(raw, []byte("/>")), " \t\r\n")
	name := body[1:]
	if i := bytes.IndexAny(name, " \t\r\n"); i >= 0 {
		name = name[:i]
	}
	open = append(append([]byte(nil), body...), '>')
	closing = append(append([]byte("</"), name...), '>')
	return open, closing
}

// parse walks the slide XML once and records every p:sp text run and p:pic.
func (s *Slide) parse() error {
	dec := xml.NewDecoder(bytes.NewReader(s.data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Space != nsP {
			continue
		}
		switch se.Name.Local {
		case "sp":
			sh, err := s.parseShape(dec)
			if err != nil {
				return err
			}
			s.shapes = append(s.shapes, sh)
		case "pic":
			pic, err := parsePicture(dec)
			if err != nil {
				return err
			}
			s.pictures = append(s.pictures, pic)
		}
	}
}

func (s *Slide) parseShape(dec *xml.Decoder) (*Shape, error) {
	sh := &Shape{}
	var (
		para    *Paragraph
		inRun   bool
		inField bool
	)
	for depth := 1; depth > 0; {
		prev := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case t.Name.Local == "cNvPr" && sh.name == "":
				sh.name = attr(t, "name")
			case t.Name.Space != nsA:
			case t.Name.Local == "p":
				para = &Paragraph{}
				sh.paragraphs = append(sh.paragraphs, para)
			case t.Name.Local == "r":
				inRun = true
			case t.Name.Local == "fld":
				inField = true
			case t.Name.Local == "br" && para != nil:
				para.pieces = append(para.pieces, piece{text: "\n"})
			case t.Name.Local == "t" && para != nil && (inRun || inField):
				run, err := readText(dec, s.data, prev)
				if err != nil {
					return nil, err
				}
				depth--
				if inRun {
					para.runs = append(para.runs, run)
					para.pieces = append(para.pieces, piece{run: run})
					s.runs = append(s.runs, run)
				} else {
					para.pieces = append(para.pieces, piece{text: run.orig})
				}
			}
		case xml.EndElement:
			depth--
			if t.Name.Space != nsA {
				continue
			}
			switch t.Name.Local {
			case "p":
				para = nil
			case "r":
				inRun = false
			case "fld":
				inField = false
			}
		}
	}
	return sh, nil
}

// readText consumes an a:t element whose start tag began at tagStart.
func readText(dec *xml.Decoder, data []byte, tagStart int) (*Run, error) {
	contentStart := int(dec.InputOffset())
	if bytes.HasSuffix(data[tagStart:contentStart], []byte("/>")) {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return &Run{start: tagStart, end: contentStart, selfClosing: true}, nil
	}
	var b strings.Builder
	for {
		at := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			text := b.String()
			return &Run{start: contentStart, end: at, orig: text, text: text}, nil
		}
	}
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
