package api

// DatasetRecord is one line of the newline-delimited JSON dataset
type DatasetRecord map[string]any

// UploadedDataset is returned by the dataset upload call
type UploadedDataset struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	URI     string `json:"uri,omitempty"`
}
