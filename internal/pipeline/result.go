package pipeline

import "github.com/hyperjump/kotae/internal/models"

// State is a step of answering one question.
type State string

const (
	StateInit        State = "init"
	StateIndexLoaded State = "index_loaded"
	StateEmbedded    State = "embedded"
	StateRetrieved   State = "retrieved"
	StateGated       State = "gated"
	StatePrompted    State = "prompted"
	StateGenerated   State = "generated"
	StateSanitized   State = "sanitized"
	StateDone        State = "done"
	StateRefused     State = "refused"
)

// Reason explains a refusal.
type Reason string

const (
	ReasonEmptyIndex            Reason = "empty_index"
	ReasonIndexUnavailable      Reason = "index_unavailable"
	ReasonEmbeddingFailed       Reason = "embedding_failed"
	ReasonInsufficientRelevance Reason = "insufficient_relevance"
	ReasonGenerationFailed      Reason = "generation_failed"
	ReasonModelRefused          Reason = "model_refused"
	ReasonPolicyViolation       Reason = "policy_violation"
)

// Result is the outcome of Run. Contexts holds the ranked candidates, which on an
// insufficient-relevance refusal are the below-threshold fallbacks. EventID is set
// when notifiers were told about the answer.
type Result struct {
	Answer           models.Answer        `json:"answer"`
	State            State                `json:"state"`
	Refused          bool                 `json:"refused"`
	Reason           Reason               `json:"reason,omitempty"`
	Contexts         []models.ScoredChunk `json:"contexts,omitempty"`
	TopScore         float64              `json:"top_score"`
	EmbModel         string               `json:"emb_model,omitempty"`
	IndexFingerprint string               `json:"index_fingerprint,omitempty"`
	EventID          string               `json:"event_id,omitempty"`
}
