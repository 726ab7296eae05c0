package models

// FactsPerSet is the fixed number of facts every FactSet carries.
const FactsPerSet = 3

// Result status values reported to API callers.
const (
	StatusSuccess  = "success"
	StatusFallback = "fallback"
)

// Fact is one titled piece of information about a country.
type Fact struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// FactSet is an ordered set of exactly FactsPerSet facts together with the
// label of the strategy that produced it.
type FactSet struct {
	Facts       []Fact `json:"facts"`
	SourceLabel string `json:"model_used"`
	Status      string `json:"status"`
}

// ChatAnswer is the reply to a templated question about a country.
type ChatAnswer struct {
	Text        string `json:"response"`
	SourceLabel string `json:"model_used"`
	Status      string `json:"status"`
}

// StrategyHealth describes one configured generation strategy.
type StrategyHealth struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

// HealthStatus is the static capability report served by the health endpoint.
type HealthStatus struct {
	Status          string           `json:"status"`
	Service         string           `json:"service"`
	Version         string           `json:"version,omitempty"`
	ModelsAvailable []string         `json:"models_available"`
	Strategies      []StrategyHealth `json:"strategies"`
	Endpoints       []string         `json:"endpoints"`
}
