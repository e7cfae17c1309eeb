package runner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/eval-hub/eval-cloud/internal/config"
	"github.com/eval-hub/eval-cloud/internal/executioncontext"
	"github.com/eval-hub/eval-cloud/internal/logging"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

type featureContext struct {
	workspace *config.WorkspaceConfig
	maxRetry  *int
	client    *fakeClient
	sleeper   *noSleep
	report    *Report
}

func (fc *featureContext) reset() {
	fc.workspace = &config.WorkspaceConfig{}
	fc.maxRetry = nil
	fc.client = &fakeClient{}
	fc.sleeper = &noSleep{}
	fc.report = nil
}

func (fc *featureContext) theWorkspaceDeployment(deployment string, apiVersion string) error {
	fc.workspace.DeploymentName = deployment
	fc.workspace.APIVersion = apiVersion
	return nil
}

func (fc *featureContext) aMaximumOfStatusChecks(maxRetry int) error {
	fc.maxRetry = &maxRetry
	return nil
}

func (fc *featureContext) theServiceReportsTheStatuses(statuses string) error {
	for _, s := range strings.Split(statuses, ",") {
		status, err := api.GetJobStatus(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		fc.client.statuses = append(fc.client.statuses, status)
	}
	return nil
}

func (fc *featureContext) theDatasetUploadFailsWith(message string) error {
	fc.client.uploadErr = errors.New(message)
	return nil
}

func (fc *featureContext) theConnectionLookupFailsWith(message string) error {
	fc.client.connectionErr = errors.New(message)
	return nil
}

func (fc *featureContext) theStatusRequestFailsWith(message string) error {
	fc.client.statusErr = errors.New(message)
	return nil
}

func (fc *featureContext) theEvaluationRunIsStarted() error {
	r := New(fc.client, Options{
		Workspace: fc.workspace,
		MaxRetry:  fc.maxRetry,
		Sleep:     fc.sleeper.sleep,
	})
	fc.report = r.Run(executioncontext.NewExecutionContext(context.Background(), "feature-run", logging.Discard()))
	return nil
}

func (fc *featureContext) theRunOutcomeShouldBe(outcome string) error {
	if fc.report.Outcome.String() != outcome {
		return fmt.Errorf("expected outcome %s, got %s (error: %v)", outcome, fc.report.Outcome, fc.report.Err)
	}
	return nil
}

func (fc *featureContext) theRunShouldStopAtTheStage(stage string) error {
	if fc.report.LastStage() != stage {
		return fmt.Errorf("expected the run to stop at %s, got %s", stage, fc.report.LastStage())
	}
	return nil
}

func (fc *featureContext) theServiceShouldReceiveRequests(count int, kind string) error {
	var got int
	switch kind {
	case "status":
		got = fc.client.statusCalls
	case "evaluation":
		got = fc.client.createCalls
	case "upload":
		got = fc.client.uploadCalls
	default:
		return fmt.Errorf("unknown request kind %q", kind)
	}
	if got != count {
		return fmt.Errorf("expected %d %s requests, got %d", count, kind, got)
	}
	return nil
}

func (fc *featureContext) theRunnerShouldWaitTimes(count int) error {
	if len(fc.sleeper.waits) != count {
		return fmt.Errorf("expected %d waits, got %d", count, len(fc.sleeper.waits))
	}
	return nil
}

func (fc *featureContext) theLastStatusShouldBe(status string) error {
	if fc.report.Status.String() != status {
		return fmt.Errorf("expected last status %s, got %s", status, fc.report.Status)
	}
	return nil
}

func (fc *featureContext) theExitCodeShouldBe(code int) error {
	if fc.report.ExitCode() != code {
		return fmt.Errorf("expected exit code %d, got %d", code, fc.report.ExitCode())
	}
	return nil
}

func (fc *featureContext) theSubmittedJobShouldContainTheEvaluators(names string) error {
	if fc.client.created == nil {
		return errors.New("no evaluation was submitted")
	}
	var got []string
	for name := range fc.client.created.Evaluators {
		got = append(got, name)
	}
	sort.Strings(got)
	if strings.Join(got, ",") != names {
		return fmt.Errorf("expected evaluators %s, got %s", names, strings.Join(got, ","))
	}
	return nil
}

func (fc *featureContext) everyEvaluatorShouldShareTheSameDataMapping() error {
	var first api.DataMapping
	for name, evaluator := range fc.client.created.Evaluators {
		if first == nil {
			first = evaluator.DataMapping
			continue
		}
		if reflect.ValueOf(first).Pointer() != reflect.ValueOf(evaluator.DataMapping).Pointer() {
			return fmt.Errorf("evaluator %s has its own data mapping", name)
		}
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	fc := &featureContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		fc.reset()
		return ctx, nil
	})

	ctx.Step(`^the workspace deployment "([^"]*)" with API version "([^"]*)"$`, fc.theWorkspaceDeployment)
	ctx.Step(`^a maximum of (\d+) status checks$`, fc.aMaximumOfStatusChecks)
	ctx.Step(`^the service reports the statuses "([^"]*)"$`, fc.theServiceReportsTheStatuses)
	ctx.Step(`^the dataset upload fails with "([^"]*)"$`, fc.theDatasetUploadFailsWith)
	ctx.Step(`^the connection lookup fails with "([^"]*)"$`, fc.theConnectionLookupFailsWith)
	ctx.Step(`^the status request fails with "([^"]*)"$`, fc.theStatusRequestFailsWith)

	ctx.Step(`^the evaluation run is started$`, fc.theEvaluationRunIsStarted)

	ctx.Step(`^the run outcome should be "([^"]*)"$`, fc.theRunOutcomeShouldBe)
	ctx.Step(`^the run should stop at the "([^"]*)" stage$`, fc.theRunShouldStopAtTheStage)
	ctx.Step(`^the service should receive (\d+) (status|evaluation|upload) requests$`, fc.theServiceShouldReceiveRequests)
	ctx.Step(`^the runner should wait (\d+) times$`, fc.theRunnerShouldWaitTimes)
	ctx.Step(`^the last status should be "([^"]*)"$`, fc.theLastStatusShouldBe)
	ctx.Step(`^the exit code should be (\d+)$`, fc.theExitCodeShouldBe)
	ctx.Step(`^the submitted job should contain the evaluators "([^"]*)"$`, fc.theSubmittedJobShouldContainTheEvaluators)
	ctx.Step(`^every evaluator should share the same data mapping$`, fc.everyEvaluatorShouldShareTheSameDataMapping)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
