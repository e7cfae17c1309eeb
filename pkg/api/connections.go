package api

// ConnectionType identifies the kind of connection to resolve on the workspace
type ConnectionType string

const (
	ConnectionTypeAzureOpenAI ConnectionType = "AzureOpenAI"
)

// Connection is a workspace connection as returned by the service.
type Connection struct {
	ID             string         `json:"id"`
	Name           string         `json:"name" validate:"required"`
	ConnectionType ConnectionType `json:"type" validate:"required"`
	EndpointURL    string         `json:"endpoint_url" validate:"required"`
	AuthType       string         `json:"auth_type,omitempty"`
	Key            string         `json:"key,omitempty"`
}

// ModelConfiguration is the model configuration consumed by the hosted evaluators.
type ModelConfiguration struct {
	Type            string `json:"type"`
	AzureEndpoint   string `json:"azure_endpoint"`
	AzureDeployment string `json:"azure_deployment"`
	APIVersion      string `json:"api_version"`
	APIKey          string `json:"api_key,omitempty"`
}

// ToEvaluatorModelConfig turns the connection into the evaluator model
// configuration for the given deployment. Key based connections carry the key,
// Entra ID connections leave it empty.
func (c *Connection) ToEvaluatorModelConfig(deploymentName, apiVersion string) *ModelConfiguration {
	modelConfig := &ModelConfiguration{
		Type:            "azure_openai",
		AzureEndpoint:   c.EndpointURL,
		AzureDeployment: deploymentName,
		APIVersion:      apiVersion,
	}
	if c.AuthType == "" || c.AuthType == "ApiKey" {
		modelConfig.APIKey = c.Key
	}
	return modelConfig
}
