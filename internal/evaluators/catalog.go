package evaluators

import (
	"github.com/eval-hub/eval-cloud/pkg/api"
)

// Catalog ids of the hosted evaluators
const (
	CoherenceEvaluatorID    = "azureml://registries/azureml/models/Coherence-Evaluator/versions/4"
	RelevanceEvaluatorID    = "azureml://registries/azureml/models/Relevance-Evaluator/versions/4"
	FluencyEvaluatorID      = "azureml://registries/azureml/models/Fluency-Evaluator/versions/4"
	GroundednessEvaluatorID = "azureml://registries/azureml/models/Groundedness-Evaluator/versions/4"
)

const (
	Coherence    = "coherence"
	Relevance    = "relevance"
	Fluency      = "fluency"
	Groundedness = "groundedness"

	ModelConfigParam = "model_config"
)

// Names lists the evaluators registered on every job
var Names = []string{Coherence, Relevance, Fluency, Groundedness}

var catalogIDs = map[string]string{
	Coherence:    CoherenceEvaluatorID,
	Relevance:    RelevanceEvaluatorID,
	Fluency:      FluencyEvaluatorID,
	Groundedness: GroundednessEvaluatorID,
}

// NewDataMapping returns the template connecting evaluator inputs to dataset columns
func NewDataMapping() api.DataMapping {
	return api.DataMapping{
		"response": "${data.response}",
		"context":  "${data.context}",
		"query":    "${data.query}",
	}
}

// BuildCatalog returns the evaluator configurations keyed by name. All entries
// share one data mapping instance and the same model configuration pointer;
// neither must be modified after the catalog is built.
func BuildCatalog(modelConfig *api.ModelConfiguration) map[string]*api.EvaluatorConfiguration {
	dataMapping := NewDataMapping()
	catalog := make(map[string]*api.EvaluatorConfiguration, len(catalogIDs))
	for name, id := range catalogIDs {
		catalog[name] = &api.EvaluatorConfiguration{
			ID:          id,
			InitParams:  map[string]any{ModelConfigParam: modelConfig},
			DataMapping: dataMapping,
		}
	}
	return catalog
}
