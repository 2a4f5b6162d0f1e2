package model

// Chapter is one step of the gamified story.
type Chapter struct {
	Chapter int    `json:"chapter"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FlowStep is a node of the learning flow chart.
type FlowStep struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Story is the shape both the model and the local fallback generator produce.
type Story struct {
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	Story     []Chapter  `json:"story"`
	Notes     []string   `json:"notes"`
	FlowChart []FlowStep `json:"flowChart"`
}

// Stats are computed locally from the extracted text and the final story.
// Chapters always equals len(Story) of the payload it belongs to.
type Stats struct {
	Slides    int      `json:"slides"`
	Chapters  int      `json:"chapters"`
	Notes     int      `json:"notes"`
	FlowSteps int      `json:"flowSteps"`
	WordCount int      `json:"wordCount"`
	Keywords  []string `json:"keywords"`
}

// StoryPayload is the body returned by POST /api/convert-ppt.
type StoryPayload struct {
	Title         string     `json:"title"`
	Summary       string     `json:"summary"`
	Story         []Chapter  `json:"story"`
	Notes         []string   `json:"notes"`
	FlowChart     []FlowStep `json:"flowChart"`
	Features      []string   `json:"features"`
	Stats         Stats      `json:"stats"`
	AIUnavailable bool       `json:"aiUnavailable,omitempty"`
	Error         string     `json:"error,omitempty"`
	Details       string     `json:"details,omitempty"`
	Model         string     `json:"model,omitempty"`
	ConversionID  string     `json:"conversionId,omitempty"`
}
