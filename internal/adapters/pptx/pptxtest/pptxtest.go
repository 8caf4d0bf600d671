// Package pptxtest builds minimal presentation packages for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// modified is stamped on every entry so builds are reproducible.
var modified = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// Shape is a text box; each paragraph is a list of run texts.
type Shape struct {
	Name       string
	Paragraphs [][]string
}

// Picture is a picture shape backed by a PNG media part.
type Picture struct {
	Name string
}

// Slide lists the shapes of one slide in document order.
type Slide struct {
	Shapes   []Shape
	Pictures []Picture
}

// Build returns the bytes of a package holding slides.
func Build(t testing.TB, slides ...Slide) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name, body string) {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	add("[Content_Types].xml", contentTypes(len(slides)))

	var ids, rels strings.Builder
	for i := range slides {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+1)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i+1)
	}
	add("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`+
		`<p:sldIdLst>`+ids.String()+`</p:sldIdLst></p:presentation>`)
	add("ppt/_rels/presentation.xml.rels", relationships(rels.String()))

	media := 0
	for i, s := range slides {
		var slideRels strings.Builder
		var body strings.Builder
		id := 2
		for _, sh := range s.Shapes {
			body.WriteString(shapeXML(id, sh))
			id++
		}
		for _, pic := range s.Pictures {
			media++
			rid := fmt.Sprintf("rIdImg%d", media)
			fmt.Fprintf(&slideRels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image%d.png"/>`, rid, media)
			fmt.Fprintf(&body, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
				`<p:blipFill><a:blip r:embed="%s"/></p:blipFill><p:spPr/></p:pic>`, id, escape(pic.Name), rid)
			id++
			add(fmt.Sprintf("ppt/media/image%d.png", media), string(PNG(t, 2, 2)))
		}
		add(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
			`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`+
			`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`+
			body.String()+`</p:spTree></p:cSld></p:sld>`)
		if slideRels.Len() > 0 {
			add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), relationships(slideRels.String()))
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close package: %v", err)
	}
	return buf.Bytes()
}

// Write builds a package into dir and returns its path.
func Write(t testing.TB, dir string, slides ...Slide) string {
	t.Helper()
	path := filepath.Join(dir, "template.pptx")
	if err := os.WriteFile(path, Build(t, slides...), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

// PNG encodes a w×h opaque image.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// Recap returns the four-slide layout of the standard recap template: a
// cover with a headline and picture and the overview on the fourth slide.
func Recap() []Slide {
	return []Slide{
		{
			Shapes:   []Shape{{Name: "Title 1", Paragraphs: [][]string{{"Campaign ", "Headline"}}}},
			Pictures: []Picture{{Name: "Picture 1"}},
		},
		{},
		{},
		{Shapes: []Shape{
			{Name: "TextBox 2", Paragraphs: [][]string{
				{"Proposed Influencers: ", "#"},
				{"Proposed Engagements: ", "#"},
				{"Proposed Impressions: ", "#"},
			}},
			{Name: "TextBox 15", Paragraphs: [][]string{
				{"Social Posts & Stories: ", "#"},
				{"Engagement Rate: ", "#%"},
				{"Engagements: ", "#"},
				{"Engagements ", "#% increase"},
				{"Impressions: ", "#"},
				{"Impressions ", "#% increase"},
			}},
		}},
	}
}

func shapeXML(id int, sh Shape) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`, id, escape(sh.Name))
	for _, para := range sh.Paragraphs {
		b.WriteString(`<a:p>`)
		for i, run := range para {
			fmt.Fprintf(&b, `<a:r><a:rPr lang="en-US" sz="%d"/><a:t>%s</a:t></a:r>`, 1400+i*200, escape(run))
		}
		b.WriteString(`</a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func relationships(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + body + `</Relationships>`
}

func contentTypes(slides int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	for i := 1; i <= slides; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
