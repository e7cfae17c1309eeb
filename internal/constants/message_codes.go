package constants

const (
	MESSAGE_CODE_EVALUATION_JOB_CREATED   = "evaluation_job_created"
	MESSAGE_CODE_EVALUATION_JOB_RETRIEVED = "evaluation_job_retrieved"
	MESSAGE_CODE_EVALUATION_JOB_COMPLETED = "evaluation_job_completed"
	MESSAGE_CODE_EVALUATION_JOB_FAILED    = "evaluation_job_failed"
	MESSAGE_CODE_EVALUATION_JOB_ABANDONED = "evaluation_job_abandoned"
)

// Separator line logged between workflow sections
const LOG_SEPARATOR = "----------------------------------------------------------------"
