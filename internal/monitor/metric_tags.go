package monitor

type MetricTag string

const (
	SuccessfulQueryDurationTag MetricTag = "successful_queries_duration"
	FailureQueryDurationTag    MetricTag = "failure_queries_duration"
	HTTPRequestDurationTag     MetricTag = "requests_duration_seconds"
	// Intake:
	IntakeSessionsCounterTag    MetricTag = "intake_sessions_counter"
	IntakeSubmissionsCounterTag MetricTag = "intake_submissions_counter"
	// Customer API Requests
	CustomerAPIRequestDurationTag MetricTag = "customer_api_request_duration_seconds"
	CustomerAPIRequestsTotalTag   MetricTag = "customer_api_requests_total"
)

func (m MetricTag) ListAll() []MetricTag {
	return []MetricTag{
		SuccessfulQueryDurationTag,
		FailureQueryDurationTag,
		HTTPRequestDurationTag,
		IntakeSessionsCounterTag,
		IntakeSubmissionsCounterTag,
		CustomerAPIRequestDurationTag,
		CustomerAPIRequestsTotalTag,
	}
}
