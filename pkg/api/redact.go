package api

import "log/slog"

const redacted = "REDACTED"

// loggedEvaluation has the fields of Evaluation without its LogValue method
type loggedEvaluation Evaluation

type loggedModelConfiguration ModelConfiguration

// LogValue hides the api key when the configuration is logged
func (m ModelConfiguration) LogValue() slog.Value {
	return slog.AnyValue(loggedModelConfiguration(m.redact()))
}

func (m ModelConfiguration) redact() ModelConfiguration {
	if m.APIKey != "" {
		m.APIKey = redacted
	}
	return m
}

// LogValue logs a copy of the evaluation where the api keys in the evaluator
// init params are hidden, whether they were set locally or echoed back by the
// service.
func (e Evaluation) LogValue() slog.Value {
	if len(e.Evaluators) > 0 {
		evaluators := make(map[string]*EvaluatorConfiguration, len(e.Evaluators))
		for name, evaluator := range e.Evaluators {
			if evaluator == nil {
				evaluators[name] = nil
				continue
			}
			c := *evaluator
			c.InitParams = redactParams(evaluator.InitParams)
			evaluators[name] = &c
		}
		e.Evaluators = evaluators
	}
	return slog.AnyValue(loggedEvaluation(e))
}

func redactParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		switch v := value.(type) {
		case *ModelConfiguration:
			if v != nil {
				value = v.redact()
			}
		case ModelConfiguration:
			value = v.redact()
		case map[string]any:
			value = redactParams(v)
		default:
			if key == "api_key" {
				if s, ok := v.(string); ok && s != "" {
					value = redacted
				}
			}
		}
		out[key] = value
	}
	return out
}
