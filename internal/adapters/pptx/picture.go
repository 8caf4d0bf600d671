package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP uploads
	_ "golang.org/x/image/webp" // register WebP uploads
)

type picture struct {
	name  string
	embed string
}

func parsePicture(dec *xml.Decoder) (*picture, error) {
	pic := &picture{}
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "cNvPr":
				if pic.name == "" {
					pic.name = attr(t, "name")
				}
			case "blip":
				for _, a := range t.Attr {
					if a.Name.Space == nsR && a.Name.Local == "embed" {
						pic.embed = a.Value
					}
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	return pic, nil
}

// pictureSlot replaces the media part behind a picture. Pictures sharing a
// media part all show the new image.
type pictureSlot struct {
	doc   *Document
	slide *Slide
	pic   *picture
}

// Replace stores data as the picture's image, converted to the format of the
// template's media part so content types stay valid.
func (p *pictureSlot) Replace(data []byte) error {
	target, ok := p.slide.rels[p.pic.embed]
	if !ok {
		return fmt.Errorf("%w: %s image %q", ErrMissingPart, p.slide.part, p.pic.embed)
	}
	encoded, err := convert(data, path.Ext(target))
	if err != nil {
		return fmt.Errorf("%s: %w", p.pic.name, err)
	}
	p.doc.replaced[target] = encoded
	return nil
}

var extFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
}

func convert(data []byte, ext string) ([]byte, error) {
	want, ok := extFormats[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: media part %q", ErrUnsupportedImage, ext)
	}
	img, got, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}
	if got == want {
		return data, nil
	}

	var buf bytes.Buffer
	switch want {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
