package extractor

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

const maxSlideBytes = 4 << 20

// ErrNotOOXML is returned for files that are not zip based presentations,
// such as legacy binary .ppt decks.
var ErrNotOOXML = errors.New("not an OOXML presentation")

// OOXMLExtractor reads the text runs of every slide in a .pptx file.
type OOXMLExtractor struct{}

func (OOXMLExtractor) Extract(ctx context.Context, p string) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}

	zr, err := zip.OpenReader(p)
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrNotOOXML, err)
	}
	defer zr.Close()

	slides := make([]*zip.File, 0)
	for _, f := range zr.File {
		if isSlide(f.Name) {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	parts := make([]string, 0, len(slides))
	for _, f := range slides {
		if err := ctx.Err(); err != nil {
			return Extraction{}, err
		}
		text, err := readSlide(f)
		if err != nil {
			return Extraction{}, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return Extraction{Text: strings.Join(parts, "\n\n"), SlideCount: len(slides)}, nil
}

func isSlide(name string) bool {
	return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
}

// slideNumber parses N out of ppt/slides/slideN.xml so slide10 sorts after slide9.
func slideNumber(name string) int {
	base := strings.TrimSuffix(strings.TrimPrefix(path.Base(name), "slide"), ".xml")
	n, err := strconv.Atoi(base)
	if err != nil {
		return 1 << 30
	}
	return n
}

func readSlide(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return paragraphs(io.LimitReader(rc, maxSlideBytes))
}

// paragraphs joins the <a:t> runs of each <a:p> and ends every paragraph
// with a period when it lacks terminal punctuation, so sentence splitting
// downstream sees slide bullets as sentences.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var out []string
	var runs []string
	inPara, inText := false, false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara, runs = true, nil
			case "t":
				inText = true
			}
		case xml.CharData:
			if inPara && inText {
				if s := strings.TrimSpace(string(t)); s != "" {
					runs = append(runs, s)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(strings.Join(runs, " ")); p != "" {
					if !strings.ContainsAny(p[len(p)-1:], ".!?") {
						p += "."
					}
					out = append(out, p)
				}
				inPara, runs = false, nil
			}
		}
	}
	return strings.Join(out, " "), nil
}
