package constants

// Log field name constants
const (
	LOG_RUN_ID       = "run_id"
	LOG_STAGE        = "stage"
	LOG_OUTCOME      = "outcome"
	LOG_ERROR        = "error"
	LOG_EVALUATION   = "evaluation_id"
	LOG_DISPLAY_NAME = "display_name"
	LOG_STATUS       = "status"
	LOG_RETRY        = "retry"
	LOG_DATASET      = "dataset"
	LOG_DATASET_ID   = "dataset_id"
	LOG_EVALUATORS   = "evaluators"
	LOG_REQUEST_ID   = "request_id"
	LOG_METHOD       = "method"
	LOG_URI          = "uri"
	LOG_RESP_CODE    = "code"
	LOG_ELAPSED      = "elapsed"
)
