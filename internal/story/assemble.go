package story

import (
	"storyforge/internal/model"
)

// Feature labels advertised to the client when the matching content exists.
const (
	FeatureStoryMode     = "Story Mode"
	FeatureQuickNotes    = "Quick Notes"
	FeatureFlowChart     = "Learning Flow Chart"
	FeatureKeywordBadges = "Keyword Badges"
)

// Input carries everything Assemble needs besides the story itself.
type Input struct {
	Text         string
	Slides       int
	KeywordLimit int
}

// Assemble merges a story with locally computed statistics. A story without
// chapters is replaced by the fallback for in.Text, so the payload always has
// at least one chapter and Stats.Chapters matches len(Story).
func Assemble(s model.Story, title string, in Input) model.StoryPayload {
	if len(s.Story) == 0 {
		s = Fallback(in.Text, title)
	}
	if s.Title == "" {
		s.Title = title
	}

	keywords := ExtractKeywords(in.Text, in.KeywordLimit)
	notes := nonNil(s.Notes)
	flow := s.FlowChart
	if flow == nil {
		flow = []model.FlowStep{}
	}

	return model.StoryPayload{
		Title:     s.Title,
		Summary:   s.Summary,
		Story:     s.Story,
		Notes:     notes,
		FlowChart: flow,
		Features:  Features(s, keywords),
		Stats: model.Stats{
			Slides:    in.Slides,
			Chapters:  len(s.Story),
			Notes:     len(notes),
			FlowSteps: len(flow),
			WordCount: WordCount(in.Text),
			Keywords:  keywords,
		},
	}
}

// Features lists the gamified features the story can drive.
func Features(s model.Story, keywords []string) []string {
	out := make([]string, 0, 4)
	if len(s.Story) > 0 {
		out = append(out, FeatureStoryMode)
	}
	if len(s.Notes) > 0 {
		out = append(out, FeatureQuickNotes)
	}
	if len(s.FlowChart) > 0 {
		out = append(out, FeatureFlowChart)
	}
	if len(keywords) > 0 {
		out = append(out, FeatureKeywordBadges)
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
