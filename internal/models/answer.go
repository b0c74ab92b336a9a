package models

// Answer is the sole externally observed output of the pipeline.
type Answer struct {
	Text string `json:"text"`
}

// Example is a worked question/answer pair shown to the model as a style exemplar.
type Example struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Directive is a named style or requirement instruction, e.g.
// {Label: "output style", Text: "answer in numbered steps, then end with a hint"}.
type Directive struct {
	Label string `json:"label" yaml:"label"`
	Text  string `json:"text" yaml:"text"`
}

// AskRequest is the body of an ask request.
type AskRequest struct {
	Question string `json:"question"`
}
