package runner

import (
	"context"
	"time"

	"github.com/eval-hub/eval-cloud/pkg/api"
)

// fakeClient is a scripted evaluation service. GetEvaluation returns the
// statuses in order and repeats the last one.
type fakeClient struct {
	connectionErr error
	uploadErr     error
	createErr     error
	statusErr     error
	statuses      []api.JobStatus

	connectionCalls int
	uploadCalls     int
	createCalls     int
	statusCalls     int
	created         *api.Evaluation
}

func (f *fakeClient) GetDefaultConnection(_ context.Context, connectionType api.ConnectionType) (*api.Connection, error) {
	f.connectionCalls++
	if f.connectionErr != nil {
		return nil, f.connectionErr
	}
	return &api.Connection{
		Name:           "default-aoai",
		ConnectionType: connectionType,
		EndpointURL:    "https://aoai.example.com",
		AuthType:       "ApiKey",
		Key:            "secret",
	}, nil
}

func (f *fakeClient) UploadFile(_ context.Context, path string) (*api.UploadedDataset, error) {
	f.uploadCalls++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &api.UploadedDataset{ID: "azureml://datastores/workspaceblobstore/paths/data.jsonl", Name: path}, nil
}

func (f *fakeClient) CreateEvaluation(_ context.Context, evaluation *api.Evaluation) (*api.Evaluation, error) {
	f.createCalls++
	f.created = evaluation
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *evaluation
	created.ID = "eval-1"
	created.Status = api.JobStatusNotStarted
	return &created, nil
}

func (f *fakeClient) GetEvaluation(_ context.Context, id string) (*api.Evaluation, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	status := api.JobStatusRunning
	if len(f.statuses) > 0 {
		status = f.statuses[len(f.statuses)-1]
		if f.statusCalls <= len(f.statuses) {
			status = f.statuses[f.statusCalls-1]
		}
	}
	return &api.Evaluation{ID: id, DisplayName: f.created.DisplayName, Evaluators: f.created.Evaluators, Status: status}, nil
}

// noSleep records the requested waits without waiting
type noSleep struct {
	waits []time.Duration
}

func (n *noSleep) sleep(_ context.Context, d time.Duration) error {
	n.waits = append(n.waits, d)
	return nil
}
