package datasets

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/xeipuuv/gojsonschema"

	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

const (
	maxRecordSize = 16 * 1024 * 1024
	maxIssues     = 5
)

// recordSchema only requires the fields the hosted evaluators read, their
// values are left to the service
const recordSchema = `{
	"type": "object",
	"required": ["query", "context", "response"]
}`

var mappingExpression = regexp.MustCompile(`^\$\{data\.([A-Za-z0-9_.\-]+)\}$`)

// Summary describes a dataset that passed the preflight checks
type Summary struct {
	Path    string
	Records int
}

// Preflight checks a newline delimited JSON dataset before it is uploaded:
// each record must match the record schema and every data mapping expression
// must resolve against it.
type Preflight struct {
	schema *gojsonschema.Schema
	paths  map[string]string
}

func NewPreflight(mapping api.DataMapping) (*Preflight, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
	if err != nil {
		return nil, err
	}
	paths := make(map[string]string, len(mapping))
	for field, expression := range mapping {
		path, err := MappingToJSONPath(expression)
		if err != nil {
			return nil, fmt.Errorf("mapping for %q: %w", field, err)
		}
		paths[field] = path
	}
	return &Preflight{schema: schema, paths: paths}, nil
}

// MappingToJSONPath converts "${data.column}" into "$.column"
func MappingToJSONPath(expression string) (string, error) {
	match := mappingExpression.FindStringSubmatch(expression)
	if match == nil {
		return "", fmt.Errorf("unsupported mapping expression %q", expression)
	}
	return "$." + match[1], nil
}

// CheckFile validates every record of the file at path. The returned error
// lists up to maxIssues problems with their line numbers.
func (p *Preflight) CheckFile(ctx context.Context, path string) (*Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, serviceerrors.NewServiceErrorWithCause(err, messages.DatasetInvalid, "Path", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)

	summary := &Summary{Path: path}
	var issues []string
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		summary.Records++
		for _, issue := range p.checkRecord(raw) {
			if len(issues) < maxIssues {
				issues = append(issues, fmt.Sprintf("line %d: %s", line, issue))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, serviceerrors.NewServiceErrorWithCause(err, messages.DatasetInvalid, "Path", path)
	}
	if len(issues) > 0 {
		return nil, serviceerrors.NewServiceError(messages.DatasetInvalid, "Path", path, "Error", strings.Join(issues, "; "))
	}
	return summary, nil
}

func (p *Preflight) checkRecord(raw []byte) []string {
	var record any
	if err := json.Unmarshal(raw, &record); err != nil {
		return []string{"invalid JSON: " + err.Error()}
	}

	var issues []string
	result, err := p.schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return []string{err.Error()}
	}
	for _, resultError := range result.Errors() {
		issues = append(issues, resultError.String())
	}

	// sorted so that the reported issues are stable
	fields := make([]string, 0, len(p.paths))
	for field := range p.paths {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if _, err := jsonpath.Get(p.paths[field], record); err != nil {
			issues = append(issues, fmt.Sprintf("mapping %q does not resolve: %v", field, err))
		}
	}
	return issues
}
