package pptx_test

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/recapdeck/internal/adapters/pptx"
	"github.com/okian/recapdeck/internal/adapters/pptx/pptxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, data []byte) *pptx.Document {
	t.Helper()
	doc, err := pptx.Parse(context.Background(), data)
	require.NoError(t, err)
	return doc
}

func entries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = b
	}
	return out
}

func TestParseRegions(t *testing.T) {
	doc := parse(t, pptxtest.Build(t, pptxtest.Recap()...))

	require.Len(t, doc.Slides(), 4)
	s, ok := doc.Slide(3)
	require.True(t, ok)
	assert.Equal(t, "ppt/slides/slide4.xml", s.Part())
	assert.Equal(t, 3, s.Index())

	region, ok := doc.Region(3, "TextBox 15")
	require.True(t, ok)
	assert.Equal(t, "TextBox 15", region.Name())
	paras := region.Paragraphs()
	require.Len(t, paras, 6)
	assert.Equal(t, "Engagements #% increase", paras[3].Text())
	require.Len(t, paras[3].Runs(), 2)
	assert.Equal(t, "#% increase", paras[3].Runs()[1].Text())

	_, ok = doc.Region(3, "TextBox 99")
	assert.False(t, ok)
	_, ok = doc.Region(9, "TextBox 15")
	assert.False(t, ok)
	_, ok = doc.Picture(0, "Picture 1")
	assert.True(t, ok)
	_, ok = doc.Picture(3, "Picture 1")
	assert.False(t, ok)
}

func TestWriteUnchanged(t *testing.T) {
	src := pptxtest.Build(t, pptxtest.Recap()...)
	out, err := parse(t, src).Bytes()
	require.NoError(t, err)
	assert.Equal(t, entries(t, src), entries(t, out))
}

func TestWriteEditsOnlyTouchedRuns(t *testing.T) {
	src := pptxtest.Build(t, pptxtest.Recap()...)
	doc := parse(t, src)

	region, ok := doc.Region(3, "TextBox 2")
	require.True(t, ok)
	region.Paragraphs()[0].Runs()[1].SetText("42 & <more>")

	out, err := doc.Bytes()
	require.NoError(t, err)

	before, after := entries(t, src), entries(t, out)
	assert.Equal(t, before["ppt/slides/slide1.xml"], after["ppt/slides/slide1.xml"])
	assert.Contains(t, string(after["ppt/slides/slide4.xml"]), `<a:rPr lang="en-US" sz="1600"/><a:t>42 &amp; &lt;more&gt;</a:t>`)
	assert.Contains(t, string(after["ppt/slides/slide4.xml"]), `<a:t>Proposed Influencers: </a:t>`)

	reread := parse(t, out)
	region, _ = reread.Region(3, "TextBox 2")
	assert.Equal(t, "Proposed Influencers: 42 & <more>", region.Paragraphs()[0].Text())
}

func TestWriteIsDeterministic(t *testing.T) {
	src := pptxtest.Build(t, pptxtest.Recap()...)
	render := func() []byte {
		doc := parse(t, src)
		region, _ := doc.Region(3, "TextBox 15")
		region.Paragraphs()[2].Runs()[1].SetText("5400")
		out, err := doc.Bytes()
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, render(), render())
}

func TestPictureReplace(t *testing.T) {
	src := pptxtest.Build(t, pptxtest.Recap()...)
	doc := parse(t, src)
	pic, ok := doc.Picture(0, "Picture 1")
	require.True(t, ok)

	upload := pptxtest.PNG(t, 8, 4)
	require.NoError(t, pic.Replace(upload))
	out, err := doc.Bytes()
	require.NoError(t, err)

	media := entries(t, out)["ppt/media/image1.png"]
	assert.Equal(t, upload, media)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(media))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 8, cfg.Width)

	assert.ErrorIs(t, pic.Replace([]byte("not an image")), pptx.ErrUnsupportedImage)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := pptxtest.Write(t, dir, pptxtest.Recap()...)

	doc, err := pptx.Open(context.Background(), path)
	require.NoError(t, err)
	out := filepath.Join(dir, "recap_deck.pptx")
	require.NoError(t, doc.Save(context.Background(), out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	left, err := filepath.Glob(filepath.Join(dir, ".recapdeck-*"))
	require.NoError(t, err)
	assert.Empty(t, left)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, doc.Save(cancelled, out), context.Canceled)
}

func TestParseFailures(t *testing.T) {
	_, err := pptx.Parse(context.Background(), []byte("plain text"))
	assert.ErrorIs(t, err, pptx.ErrInvalidPackage)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("docProps/app.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	_, err = pptx.Parse(context.Background(), buf.Bytes())
	assert.ErrorIs(t, err, pptx.ErrInvalidPackage)

	_, err = pptx.Open(context.Background(), filepath.Join(t.TempDir(), "missing.pptx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
