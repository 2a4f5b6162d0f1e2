package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storyforge/internal/model"
)

// ErrEmptyStory is returned when a reply parses but has no chapters.
var ErrEmptyStory = errors.New("model reply has no story chapters")

const promptTemplate = `You are an expert teacher who turns lecture slides into gamified learning adventures.

Presentation: %q
Slides: %d

Slide content:
"""
%s
"""

Turn this presentation into an engaging story for students. Respond with ONLY a JSON object, no prose, using exactly this shape:
{
  "title": "a catchy quest title",
  "summary": "two or three sentences summarizing the presentation",
  "story": [
    {"chapter": 1, "title": "chapter title", "content": "a short story chapter that teaches one idea"}
  ],
  "notes": ["short study note"],
  "flowChart": [
    {"step": 1, "title": "step title", "description": "what the learner does or learns"}
  ]
}
Write between 3 and 6 chapters, up to 8 notes and one flow chart step per chapter.`

// BuildPrompt fills the fixed prompt template.
func BuildPrompt(fileName string, slides int, text string) string {
	return fmt.Sprintf(promptTemplate, fileName, slides, text)
}

const fence = "```"

// StripCodeFences removes the markdown fence a model may wrap its JSON in.
// Only the opening fence line and a closing fence are removed, so fences
// inside string values survive.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, fence); ok {
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[i+1:]
		} else if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		s = strings.TrimSpace(rest)
		s = strings.TrimSpace(strings.TrimSuffix(s, fence))
	}
	return s
}

// ParseStory decodes a model reply into a Story. Chapters and flow steps
// without a number are numbered by position.
func ParseStory(raw string) (model.Story, error) {
	var s model.Story
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &s); err != nil {
		return model.Story{}, fmt.Errorf("parse model reply: %w", err)
	}
	if len(s.Story) == 0 {
		return model.Story{}, ErrEmptyStory
	}
	for i := range s.Story {
		if s.Story[i].Chapter == 0 {
			s.Story[i].Chapter = i + 1
		}
	}
	for i := range s.FlowChart {
		if s.FlowChart[i].Step == 0 {
			s.FlowChart[i].Step = i + 1
		}
	}
	return s, nil
}
