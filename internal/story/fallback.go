package story

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"storyforge/internal/model"
)

const (
	minSentenceLen      = 20
	sentencesPerChapter = 2
	maxChapters         = 5
	maxNotes            = 5
	titleWords          = 5
)

// SplitSentences breaks text on '.', '!' and '?' and keeps trimmed sentences
// of at least minSentenceLen characters, in order.
func SplitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.Join(strings.Fields(p), " ")
		if utf8.RuneCountInString(s) >= minSentenceLen {
			out = append(out, s)
		}
	}
	return out
}

// Fallback derives a story from text without any model. It is deterministic:
// the same text and title always produce the same story. When text has no
// usable sentence the canned story is returned.
func Fallback(text, title string) model.Story {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return Canned(title)
	}

	summary := strings.Join(sentences[:min(2, len(sentences))], ". ") + "."

	chapters := make([]model.Chapter, 0, maxChapters)
	flow := make([]model.FlowStep, 0, maxChapters)
	for i := 0; i < len(sentences) && len(chapters) < maxChapters; i += sentencesPerChapter {
		group := sentences[i:min(i+sentencesPerChapter, len(sentences))]
		n := len(chapters) + 1
		heading := firstWords(group[0], titleWords)
		chapters = append(chapters, model.Chapter{
			Chapter: n,
			Title:   fmt.Sprintf("Chapter %d: %s", n, heading),
			Content: strings.Join(group, ". ") + ".",
		})
		flow = append(flow, model.FlowStep{
			Step:        n,
			Title:       heading,
			Description: group[0] + ".",
		})
	}

	notes := make([]string, 0, maxNotes)
	for _, s := range sentences[:min(maxNotes, len(sentences))] {
		notes = append(notes, s+".")
	}

	return model.Story{
		Title:     title,
		Summary:   summary,
		Story:     chapters,
		Notes:     notes,
		FlowChart: flow,
	}
}

// Canned is the last-resort story used when nothing can be derived from text.
func Canned(title string) model.Story {
	return model.Story{
		Title:   title,
		Summary: "This presentation has been turned into a learning quest. Work through each chapter to master its key ideas.",
		Story: []model.Chapter{
			{Chapter: 1, Title: "Chapter 1: The Beginning", Content: "Your quest starts here. Get to know the main topic and why it matters."},
			{Chapter: 2, Title: "Chapter 2: The Challenge", Content: "Dive into the core concepts and see how they connect to each other."},
			{Chapter: 3, Title: "Chapter 3: The Victory", Content: "Apply what you learned and claim your reward by reviewing the key points."},
		},
		Notes: []string{
			"Review the main topic of the presentation.",
			"Connect each concept to a real example.",
			"Summarize the key points in your own words.",
		},
		FlowChart: []model.FlowStep{
			{Step: 1, Title: "Discover", Description: "Learn the main topic."},
			{Step: 2, Title: "Explore", Description: "Study the core concepts."},
			{Step: 3, Title: "Master", Description: "Apply and review."},
		},
	}
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
