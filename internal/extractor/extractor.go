package extractor

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Extraction is the text pulled from an uploaded deck.
type Extraction struct {
	Text       string
	SlideCount int
}

// Extractor turns a deck on local disk into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (Extraction, error)
}

// New returns the extractor selected by name. "ooxml" reads real slide text
// and degrades to the stub; anything else is the stub alone.
func New(name string, log *zap.Logger) Extractor {
	if strings.EqualFold(name, "ooxml") {
		return &Chain{primary: OOXMLExtractor{}, fallback: StubExtractor{}, log: log}
	}
	return StubExtractor{}
}

// Chain tries primary first and uses fallback on error or empty text.
type Chain struct {
	primary  Extractor
	fallback Extractor
	log      *zap.Logger
}

// NewChain builds a Chain from two extractors.
func NewChain(primary, fallback Extractor, log *zap.Logger) *Chain {
	return &Chain{primary: primary, fallback: fallback, log: log}
}

func (c *Chain) Extract(ctx context.Context, path string) (Extraction, error) {
	ex, err := c.primary.Extract(ctx, path)
	if err == nil && strings.TrimSpace(ex.Text) != "" {
		return ex, nil
	}
	if c.log != nil {
		fields := []zap.Field{zap.String("component", "extractor"), zap.String("path", path)}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		c.log.Warn("extract_fallback", fields...)
	}
	return c.fallback.Extract(ctx, path)
}
