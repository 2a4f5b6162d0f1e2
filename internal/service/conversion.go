package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyforge/internal/ai"
	"storyforge/internal/extractor"
	"storyforge/internal/metrics"
	"storyforge/internal/model"
	"storyforge/internal/repository"
	"storyforge/internal/storage"
	"storyforge/internal/story"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("conversion not found")
	ErrReaderNil       = errors.New("reader is nil")
	ErrHistoryDisabled = errors.New("conversion history is not configured")
	ErrDeckNotArchived = errors.New("deck was not archived")
	ErrAPIKeyMissing   = ai.ErrAPIKeyMissing
)

const (
	presignExpiry       = 15 * time.Minute
	defaultKeywordLimit = 10
)

// ConvertInput describes one uploaded deck.
type ConvertInput struct {
	Reader      io.Reader
	Filename    string
	DisplayName string
	ContentType string
	// Size of the upload in bytes, used as the archive size hint. Zero means unknown.
	Size int64
}

// ConversionListResult is the service-level DTO for paginated history.
type ConversionListResult struct {
	Items []model.Conversion `json:"data"`
	Total int                `json:"total"`
}

// ConversionDetail is a history record with an optional deck download link.
type ConversionDetail struct {
	model.Conversion
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// Status summarizes the configuration for the health probe.
type Status struct {
	GeminiConfigured bool
	ModelsCached     int
	HistoryEnabled   bool
	ArchiveEnabled   bool
}

// ConversionService defines the use cases for turning decks into stories.
type ConversionService interface {
	// Convert stores the upload, extracts text, asks the model for a story and
	// falls back to the local generator. The temp file is removed before return.
	Convert(ctx context.Context, in ConvertInput) (*model.StoryPayload, error)

	// ListModels returns discovered model names, querying the provider when
	// refresh is set or nothing is cached.
	ListModels(ctx context.Context, refresh bool) ([]string, error)

	// Status reports what is configured.
	Status() Status

	// List returns conversion history using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ConversionListResult, error)

	// Get returns a single conversion by its ID.
	Get(ctx context.Context, id string) (*ConversionDetail, error)

	// OpenDeck streams the archived deck of a conversion.
	OpenDeck(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error)

	// Delete removes a conversion and its archived deck.
	Delete(ctx context.Context, id string) error
}

// ConversionRecorder counts finished conversions by source.
type ConversionRecorder interface {
	Conversion(source string)
}

// Deps are the collaborators of the conversion service. History, Archive and
// Metrics are optional.
type Deps struct {
	Uploads      storage.TempStore
	Extractor    extractor.Extractor
	Generator    *ai.Generator
	Selector     *ai.Selector
	History      repository.ConversionRepository
	Archive      storage.Storage
	Metrics      ConversionRecorder
	KeywordLimit int
	Log          *zap.Logger
}

type conversionService struct {
	uploads      storage.TempStore
	extractor    extractor.Extractor
	generator    *ai.Generator
	selector     *ai.Selector
	history      repository.ConversionRepository
	archive      storage.Storage
	metrics      ConversionRecorder
	keywordLimit int
	log          *zap.Logger
	now          func() time.Time
}

// NewConversionService constructs a new ConversionService.
func NewConversionService(d Deps) ConversionService {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	limit := d.KeywordLimit
	if limit <= 0 {
		limit = defaultKeywordLimit
	}
	return &conversionService{
		uploads:      d.Uploads,
		extractor:    d.Extractor,
		generator:    d.Generator,
		selector:     d.Selector,
		history:      d.History,
		archive:      d.Archive,
		metrics:      d.Metrics,
		keywordLimit: limit,
		log:          log.With(zap.String("component", "conversion")),
		now:          time.Now,
	}
}

func (s *conversionService) Convert(ctx context.Context, in ConvertInput) (*model.StoryPayload, error) {
	if in.Reader == nil {
		return nil, ErrReaderNil
	}

	path, err := s.uploads.Save(ctx, in.Reader, in.Filename)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	defer func() {
		if err := s.uploads.Remove(path); err != nil {
			s.log.Warn("upload_cleanup_failed", zap.String("path", path), zap.Error(err))
		}
	}()

	id := uuid.New().String()
	archivePath := s.archiveDeck(ctx, id, path, in)

	ex, err := s.extractor.Extract(ctx, path)
	if err != nil {
		s.log.Warn("extract_failed", zap.String("path", path), zap.Error(err))
		ex = extractor.Extraction{}
	}

	title := deckTitle(in)
	var (
		st        model.Story
		modelName string
		aiErr     error
	)
	if s.generator.Available() {
		prompt := ai.BuildPrompt(in.Filename, ex.SlideCount, ex.Text)
		res, err := s.generator.Generate(ctx, prompt)
		if err == nil {
			st, modelName = res.Story, res.Model
		} else {
			aiErr = err
		}
	} else {
		aiErr = ErrAPIKeyMissing
	}

	if aiErr != nil {
		st = story.Fallback(ex.Text, title)
	}

	payload := story.Assemble(st, title, story.Input{
		Text:         ex.Text,
		Slides:       ex.SlideCount,
		KeywordLimit: s.keywordLimit,
	})
	payload.Model = modelName

	source := metrics.SourceAI
	if aiErr != nil {
		source = metrics.SourceFallback
		payload.AIUnavailable = true
		payload.Error = ai.Categorize(aiErr)
		payload.Details = ai.Details(aiErr)
	}
	if s.metrics != nil {
		s.metrics.Conversion(source)
	}

	s.log.Info("conversion_done",
		zap.String("conversion_id", id),
		zap.String("filename", in.Filename),
		zap.String("source", source),
		zap.String("model", modelName),
		zap.Int("chapters", payload.Stats.Chapters),
	)

	if s.history != nil {
		rec := &model.Conversion{
			ID:            id,
			Filename:      in.Filename,
			Title:         payload.Title,
			Model:         modelName,
			AIUnavailable: payload.AIUnavailable,
			Slides:        ex.SlideCount,
			Chapters:      payload.Stats.Chapters,
			ArchivePath:   archivePath,
			CreatedAt:     s.now().UTC(),
		}
		if _, err := s.history.Create(ctx, rec); err != nil {
			s.log.Error("history_save_failed", zap.String("conversion_id", id), zap.Error(err))
		} else {
			payload.ConversionID = id
		}
	}

	return &payload, nil
}

// archiveDeck copies the upload into object storage. Failures are logged
// and yield an empty path.
func (s *conversionService) archiveDeck(ctx context.Context, id, path string, in ConvertInput) string {
	if s.archive == nil {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		s.log.Warn("archive_open_failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	defer f.Close()

	size := in.Size
	if size <= 0 {
		size = -1
		if fi, err := f.Stat(); err == nil {
			size = fi.Size()
		}
	}
	key := filepath.ToSlash(filepath.Join("decks", id+strings.ToLower(filepath.Ext(in.Filename))))
	info, err := s.archive.Put(ctx, key, f, storage.PutObjectOptions{
		Size:        size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			storage.MetaOriginalFilename: in.Filename,
		},
	})
	if err != nil {
		s.log.Warn("archive_put_failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return info.Key
}

func (s *conversionService) ListModels(ctx context.Context, refresh bool) ([]string, error) {
	if !s.generator.Available() {
		return nil, ErrAPIKeyMissing
	}
	cached := s.cachedModels()
	if !refresh && len(cached) > 0 {
		return cached, nil
	}
	return s.selector.Discover(ctx)
}

func (s *conversionService) Status() Status {
	return Status{
		GeminiConfigured: s.generator.Available(),
		ModelsCached:     len(s.cachedModels()),
		HistoryEnabled:   s.history != nil,
		ArchiveEnabled:   s.archive != nil,
	}
}

func (s *conversionService) cachedModels() []string {
	if s.selector == nil {
		return nil
	}
	return s.selector.Cached()
}

// List returns paginated history without exposing repository types.
func (s *conversionService) List(ctx context.Context, limit, offset int) (*ConversionListResult, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.history.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ConversionListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *conversionService) find(ctx context.Context, id string) (*model.Conversion, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	c, err := s.history.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Get returns a conversion by ID with a presigned deck link when archived.
func (s *conversionService) Get(ctx context.Context, id string) (*ConversionDetail, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ConversionDetail{Conversion: *c}
	if s.archive != nil && c.ArchivePath != "" {
		u, err := s.archive.PresignGet(ctx, c.ArchivePath, presignExpiry)
		if err != nil {
			s.log.Warn("presign_failed", zap.String("key", c.ArchivePath), zap.Error(err))
		} else {
			detail.DownloadURL = u
		}
	}
	return detail, nil
}

func (s *conversionService) OpenDeck(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	if s.archive == nil || c.ArchivePath == "" {
		return nil, storage.ObjectInfo{}, ErrDeckNotArchived
	}
	rc, info, err := s.archive.Get(ctx, c.ArchivePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, ErrDeckNotArchived
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("get archived deck: %w", err)
	}
	return rc, info, nil
}

// Delete removes the archived deck first, then the history row. A deck that
// is already gone from the bucket does not block the delete.
func (s *conversionService) Delete(ctx context.Context, id string) error {
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if s.archive != nil && c.ArchivePath != "" {
		if err := s.archive.Delete(ctx, c.ArchivePath); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("delete archived deck: %w", err)
		}
	}
	return s.history.Delete(ctx, id)
}

// deckTitle prefers the client supplied name, then the upload name, without extension.
func deckTitle(in ConvertInput) string {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = in.Filename
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		return "Untitled Presentation"
	}
	return name
}
