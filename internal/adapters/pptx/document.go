// Package pptx edits the text runs and pictures of an existing .pptx
// template in place. Untouched package parts are copied verbatim and edited
// slides only change inside the rewritten text elements.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/okian/recapdeck/internal/domain/binding"
	"github.com/okian/recapdeck/pkg/logger"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	presentationPart = "ppt/presentation.xml"
)

// Document is an opened template. It is not safe for concurrent use.
type Document struct {
	zr       *zip.Reader
	slides   []*Slide
	replaced map[string][]byte
	log      logger.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.log = l
		}
	}
}

// Open reads the template at path.
func Open(ctx context.Context, path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, data, opts...)
}

// Parse reads a template from memory.
func Parse(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPackage, err)
	}
	d := &Document{zr: zr, replaced: make(map[string][]byte), log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}

	parts, err := d.slideParts()
	if err != nil {
		return nil, err
	}
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := d.read(part)
		if err != nil {
			return nil, err
		}
		s := &Slide{index: i, part: part, data: raw}
		if err := s.parse(); err != nil {
			return nil, fmt.Errorf("parse %s: %w", part, err)
		}
		if rels, err := d.read(relsPart(part)); err == nil {
			s.rels = parseRels(rels, part)
		}
		d.slides = append(d.slides, s)
	}
	d.log.Debug(ctx, "template parsed", logger.Int("slides", len(d.slides)))
	return d, nil
}

// Slides returns the slides in presentation order.
func (d *Document) Slides() []*Slide { return append([]*Slide(nil), d.slides...) }

// Slide returns the slide at page, zero based.
func (d *Document) Slide(page int) (*Slide, bool) {
	if page < 0 || page >= len(d.slides) {
		return nil, false
	}
	return d.slides[page], true
}

// Region finds a text shape by page and name.
func (d *Document) Region(page int, name string) (binding.Region, bool) {
	s, ok := d.Slide(page)
	if !ok {
		return nil, false
	}
	sh, ok := s.Shape(name)
	if !ok {
		return nil, false
	}
	return sh, true
}

// Picture finds a picture shape by page and name.
func (d *Document) Picture(page int, name string) (binding.Picture, bool) {
	s, ok := d.Slide(page)
	if !ok {
		return nil, false
	}
	for _, p := range s.pictures {
		if p.name == name {
			return &pictureSlot{doc: d, slide: s, pic: p}, true
		}
	}
	return nil, false
}

// Write serializes the document. Entry order and headers follow the template
// so identical edits give identical bytes.
func (d *Document) Write(w io.Writer) error {
	edited := make(map[string][]byte, len(d.slides))
	for _, s := range d.slides {
		if s.dirty() {
			edited[s.part] = s.render()
		}
	}
	for name, data := range d.replaced {
		edited[name] = data
	}

	zw := zip.NewWriter(w)
	for _, f := range d.zr.File {
		data, ok := edited[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}
		hdr := f.FileHeader
		fw, err := zw.CreateHeader(&hdr)
		if err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

// Bytes serializes the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path through a temporary file in the same
// directory.
func (d *Document) Save(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".recapdeck-*.pptx")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := d.Write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (d *Document) read(name string) ([]byte, error) {
	for _, f := range d.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
}

// slideParts lists slide part names in presentation order.
func (d *Document) slideParts() ([]string, error) {
	pres, err := d.read(presentationPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPackage, err)
	}
	relsData, err := d.read(relsPart(presentationPart))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPackage, err)
	}
	rels := parseRels(relsData, presentationPart)

	var parts []string
	dec := xml.NewDecoder(bytes.NewReader(pres))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPackage, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldId" {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Space == nsR && a.Name.Local == "id" {
				if target, ok := rels[a.Value]; ok {
					parts = append(parts, target)
				}
			}
		}
	}
	return parts, nil
}

// relsPart returns the relationships part of name.
func relsPart(name string) string {
	dir, file := path.Split(name)
	return dir + "_rels/" + file + ".rels"
}

// parseRels maps relationship ids to absolute part names resolved against
// source.
func parseRels(data []byte, source string) map[string]string {
	out := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target, mode string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			case "TargetMode":
				mode = a.Value
			}
		}
		if id == "" || target == "" || mode == "External" {
			continue
		}
		out[id] = resolvePart(source, target)
	}
}

func resolvePart(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}
