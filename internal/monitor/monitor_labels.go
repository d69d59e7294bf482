package monitor

type HTTPRequestLabels struct {
	Status string
	Route  string
	Method string
}

type DBQueryLabels struct {
	QueryType string
}

type IntakeSessionLabels struct {
	Flow string
}

func (l IntakeSessionLabels) ToMap() map[string]string {
	return map[string]string{
		"flow": l.Flow,
	}
}

var IntakeSessionLabelNames = []string{"flow"}

// SubmissionLabels describe one wizard submission. Operation is "create" or "update".
type SubmissionLabels struct {
	Operation string
	Status    string
}

func (l SubmissionLabels) ToMap() map[string]string {
	return map[string]string{
		"operation": l.Operation,
		"status":    l.Status,
	}
}

var SubmissionLabelNames = []string{"operation", "status"}

type CustomerAPILabels struct {
	Method     string
	Endpoint   string
	Status     string
	StatusCode string
}

func (c CustomerAPILabels) ToMap() map[string]string {
	return map[string]string{
		"method":      c.Method,
		"endpoint":    c.Endpoint,
		"status":      c.Status,
		"status_code": c.StatusCode,
	}
}

var CustomerAPILabelNames = []string{"method", "endpoint", "status", "status_code"}
