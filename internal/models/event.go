package models

import "time"

// AnswerEvent records one successfully answered question.
type AnswerEvent struct {
	ID               string        `json:"id"`
	Question         string        `json:"question"`
	Answer           string        `json:"answer"`
	TopScore         float64       `json:"top_score"`
	Contexts         int           `json:"contexts"`
	EmbModel         string        `json:"emb_model"`
	GenModel         string        `json:"gen_model"`
	IndexFingerprint string        `json:"index_fingerprint,omitempty"`
	Duration         time.Duration `json:"duration_ns"`
	CreatedAt        time.Time     `json:"created_at"`
}
