package domain

// Readiness component names.
const (
	ComponentVectorStore = "vector_store"
	ComponentEmbedding   = "embedding_model"
	ComponentLLM         = "llm_api"
)

// ComponentStatus is the outcome of pinging one dependency.
type ComponentStatus struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readiness reports whether every dependency answered.
type Readiness struct {
	Ready      bool              `json:"ready"`
	Components []ComponentStatus `json:"components"`
}
