package extractor

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeDeck(t *testing.T, slides map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func slide(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<p:cSld><p:spTree><p:sp><p:txBody>` + body + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestStubExtractor(t *testing.T) {
	ex, err := StubExtractor{}.Extract(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, StubText, ex.Text)
	assert.Equal(t, StubSlideCount, ex.SlideCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = StubExtractor{}.Extract(ctx, "ignored")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOOXMLExtractor(t *testing.T) {
	p := writeDeck(t, map[string]string{
		"ppt/slides/slide1.xml":            slide(`<a:p><a:r><a:t>Intro to</a:t></a:r><a:r><a:t>Go</a:t></a:r></a:p><a:p><a:r><a:t>Goroutines are cheap!</a:t></a:r></a:p>`),
		"ppt/slides/slide2.xml":            slide(`<a:p><a:r><a:t>Channels</a:t></a:r></a:p>`),
		"ppt/slides/slide10.xml":           slide(`<a:p><a:r><a:t>Wrap up</a:t></a:r></a:p>`),
		"ppt/slides/_rels/slide1.xml.rels": `<Relationships/>`,
		"docProps/core.xml":                `<cp:coreProperties/>`,
	})

	ex, err := OOXMLExtractor{}.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 3, ex.SlideCount)
	assert.Equal(t, "Intro to Go. Goroutines are cheap!\n\nChannels.\n\nWrap up.", ex.Text)
}

func TestOOXMLExtractor_NotZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "legacy.ppt")
	require.NoError(t, os.WriteFile(p, []byte("\xd0\xcf\x11\xe0 legacy"), 0o600))

	_, err := OOXMLExtractor{}.Extract(context.Background(), p)
	assert.ErrorIs(t, err, ErrNotOOXML)
}

func TestChain(t *testing.T) {
	log := zap.NewNop()

	t.Run("falls back on error", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "legacy.ppt")
		require.NoError(t, os.WriteFile(p, []byte("binary"), 0o600))

		ex, err := New("ooxml", log).Extract(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, StubText, ex.Text)
	})

	t.Run("falls back on empty text", func(t *testing.T) {
		p := writeDeck(t, map[string]string{"ppt/slides/slide1.xml": slide(``)})

		ex, err := NewChain(OOXMLExtractor{}, StubExtractor{}, log).Extract(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, StubSlideCount, ex.SlideCount)
	})

	t.Run("uses primary when it has text", func(t *testing.T) {
		p := writeDeck(t, map[string]string{"ppt/slides/slide1.xml": slide(`<a:p><a:r><a:t>Real text</a:t></a:r></a:p>`)})

		ex, err := New("OOXML", log).Extract(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "Real text.", ex.Text)
		assert.Equal(t, 1, ex.SlideCount)
	})

	t.Run("stub by default", func(t *testing.T) {
		_, ok := New("", log).(StubExtractor)
		assert.True(t, ok)
	})
}
