package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storyforge/internal/ai/mocks"
)

const validReply = "```json\n" + `{
  "title": "The Loop Quest",
  "summary": "Learn loops.",
  "story": [{"title": "Start", "content": "Begin here."}, {"chapter": 7, "title": "End", "content": "Finish."}],
  "notes": ["loops repeat"],
  "flowChart": [{"title": "Start", "description": "go"}]
}` + "\n```"

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  ```\n{\"a\":1}```  "))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```JSON {\"a\":1}```"))

	inner := "{\"content\":\"Run:\\n```go\\nfmt.Println(1)\\n```\"}"
	assert.Equal(t, inner, StripCodeFences("```json\n"+inner+"\n```"))
	assert.Equal(t, inner, StripCodeFences(inner))
}

func TestParseStory_KeepsFencesInContent(t *testing.T) {
	reply := "```json\n{\"title\":\"Go Quest\",\"story\":[{\"title\":\"Loops\",\"content\":\"Try:\\n```go\\nfor i := 0; i < 3; i++ {}\\n```\"}]}\n```"

	s, err := ParseStory(reply)

	require.NoError(t, err)
	require.Len(t, s.Story, 1)
	assert.Contains(t, s.Story[0].Content, "```go\nfor i := 0; i < 3; i++ {}\n```")
}

func TestParseStory(t *testing.T) {
	s, err := ParseStory(validReply)
	require.NoError(t, err)
	assert.Equal(t, "The Loop Quest", s.Title)
	require.Len(t, s.Story, 2)
	assert.Equal(t, 1, s.Story[0].Chapter)
	assert.Equal(t, 7, s.Story[1].Chapter)
	assert.Equal(t, 1, s.FlowChart[0].Step)

	_, err = ParseStory("Sure! Here is your story.")
	assert.Error(t, err)

	_, err = ParseStory(`{"title":"x","story":[]}`)
	assert.ErrorIs(t, err, ErrEmptyStory)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("intro.pptx", 12, "Variables hold values.")
	assert.Contains(t, p, `"intro.pptx"`)
	assert.Contains(t, p, "Slides: 12")
	assert.Contains(t, p, "Variables hold values.")
	assert.Contains(t, p, `"flowChart"`)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api key", errors.New("Error 400, Message: API key not valid. Please pass a valid API key."), MsgInvalidAPIKey},
		{"not found", errors.New("Error 404, Message: models/gemini-pro is not found"), MsgModelNotAvailable},
		{"verbatim", errors.New("connection reset"), "connection reset"},
		{
			"unwraps candidates error",
			&CandidatesError{Tried: []string{"a"}, Last: errors.New("Error 404, Message: gone")},
			MsgModelNotAvailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}

	ce := &CandidatesError{Tried: []string{"a", "b"}, Last: errors.New("boom")}
	assert.Equal(t, "boom", Details(ce))
	assert.Equal(t, "all 2 model candidates failed: boom", ce.Error())
}

func TestSelector(t *testing.T) {
	ctx := context.Background()

	t.Run("candidates dedupe discovered and fallback", func(t *testing.T) {
		mc := new(mocks.MockClient)
		mc.On("ListModels", ctx).Return([]string{"gemini-x", "gemini-1.5-pro", "gemini-x"}, nil).Once()

		s := NewSelector(mc, []string{"gemini-1.5-pro", "gemini-pro", ""}, nil)
		assert.Equal(t, []string{"gemini-1.5-pro", "gemini-pro"}, s.Candidates())

		names, err := s.Discover(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"gemini-x", "gemini-1.5-pro", "gemini-x"}, names)
		assert.Equal(t, []string{"gemini-x", "gemini-1.5-pro", "gemini-pro"}, s.Candidates())
		mc.AssertExpectations(t)
	})

	t.Run("discovery error keeps cache", func(t *testing.T) {
		mc := new(mocks.MockClient)
		mc.On("ListModels", ctx).Return([]string{"gemini-a"}, nil).Once()
		mc.On("ListModels", ctx).Return(nil, errors.New("upstream down")).Once()

		s := NewSelector(mc, nil, nil)
		_, err := s.Discover(ctx)
		require.NoError(t, err)
		_, err = s.Discover(ctx)
		assert.Error(t, err)
		assert.Equal(t, []string{"gemini-a"}, s.Cached())
		assert.Equal(t, append([]string{"gemini-a"}, DefaultModels...), s.Candidates())
	})

	t.Run("no client", func(t *testing.T) {
		s := NewSelector(nil, nil, nil)
		_, err := s.Discover(ctx)
		assert.ErrorIs(t, err, ErrAPIKeyMissing)
		assert.Equal(t, DefaultModels, s.Candidates())
		assert.Empty(t, s.Cached())
	})

	t.Run("cached returns a copy", func(t *testing.T) {
		mc := new(mocks.MockClient)
		mc.On("ListModels", ctx).Return([]string{"gemini-a"}, nil)

		s := NewSelector(mc, nil, nil)
		_, err := s.Discover(ctx)
		require.NoError(t, err)
		got := s.Cached()
		got[0] = "mutated"
		assert.Equal(t, []string{"gemini-a"}, s.Cached())
	})

	t.Run("concurrent discovery is safe", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		mc := new(mocks.MockClient)
		mc.On("ListModels", mock.Anything).Return([]string{"gemini-a"}, nil)

		s := NewSelector(mc, nil, nil)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.Discover(ctx)
				_ = s.Candidates()
			}()
		}
		wg.Wait()
		assert.Equal(t, []string{"gemini-a"}, s.Cached())
	})
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	prompt := "prompt"

	t.Run("first parseable candidate wins", func(t *testing.T) {
		mc := new(mocks.MockClient)
		rec := new(mocks.MockRecorder)
		mc.On("Generate", mock.Anything, "m1", prompt).Return("", errors.New("Error 404, Message: not found")).Once()
		mc.On("Generate", mock.Anything, "m2", prompt).Return("not json at all", nil).Once()
		mc.On("Generate", mock.Anything, "m3", prompt).Return(validReply, nil).Once()
		rec.On("ModelAttempt", "m1", OutcomeCallError).Once()
		rec.On("ModelAttempt", "m2", OutcomeParseError).Once()
		rec.On("ModelAttempt", "m3", OutcomeOK).Once()

		g := NewGenerator(mc, NewSelector(mc, []string{"m1", "m2", "m3", "m4"}, nil), time.Second, rec, nil)
		res, err := g.Generate(ctx, prompt)

		require.NoError(t, err)
		assert.Equal(t, "m3", res.Model)
		assert.Equal(t, "The Loop Quest", res.Story.Title)
		mc.AssertExpectations(t)
		mc.AssertNotCalled(t, "Generate", mock.Anything, "m4", prompt)
		rec.AssertExpectations(t)
	})

	t.Run("all candidates fail", func(t *testing.T) {
		mc := new(mocks.MockClient)
		mc.On("Generate", mock.Anything, "m1", prompt).Return("", errors.New("boom")).Once()
		mc.On("Generate", mock.Anything, "m2", prompt).Return("", errors.New("API key not valid")).Once()

		g := NewGenerator(mc, NewSelector(mc, []string{"m1", "m2"}, nil), 0, nil, nil)
		_, err := g.Generate(ctx, prompt)

		var ce *CandidatesError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{"m1", "m2"}, ce.Tried)
		assert.Equal(t, MsgInvalidAPIKey, Categorize(err))
		mc.AssertExpectations(t)
	})

	t.Run("cancelled context stops the loop", func(t *testing.T) {
		mc := new(mocks.MockClient)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		g := NewGenerator(mc, NewSelector(mc, []string{"m1"}, nil), 0, nil, nil)
		_, err := g.Generate(cctx, prompt)

		assert.ErrorIs(t, err, context.Canceled)
		mc.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no client", func(t *testing.T) {
		g := NewGenerator(nil, NewSelector(nil, nil, nil), 0, nil, nil)
		assert.False(t, g.Available())
		_, err := g.Generate(ctx, prompt)
		assert.ErrorIs(t, err, ErrAPIKeyMissing)
	})
}
