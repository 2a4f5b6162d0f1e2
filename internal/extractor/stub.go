package extractor

import "context"

// StubSlideCount is the slide count reported for every deck by StubExtractor.
const StubSlideCount = 10

// StubText is the placeholder content StubExtractor reports for every deck.
const StubText = `This presentation introduces the fundamentals of programming and computational thinking. ` +
	`Variables store values that a program can read and update while it runs. ` +
	`Control flow statements such as conditionals and loops decide which instructions execute next. ` +
	`Functions group related instructions so they can be reused and tested in isolation. ` +
	`Data structures like arrays, lists and maps organize information for efficient access. ` +
	`Algorithms describe step by step procedures for solving problems such as searching and sorting. ` +
	`Debugging is the practice of finding and fixing errors by observing program behavior. ` +
	`Version control keeps a history of changes and lets teams collaborate on the same code. ` +
	`Testing verifies that programs behave correctly and keeps regressions from returning. ` +
	`Practice projects help learners apply these concepts and build confidence step by step.`

// StubExtractor does not parse the deck. It returns StubText and
// StubSlideCount so the rest of the pipeline has stable input.
type StubExtractor struct{}

func (StubExtractor) Extract(ctx context.Context, _ string) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}
	return Extraction{Text: StubText, SlideCount: StubSlideCount}, nil
}
