package validate

import (
	"fmt"

	"go.uber.org/zap"
)

// Reporter is used as syntactic sugar in validation. Set the next field using
// NextField and then report issues with Error and Warn. The final Report can be
// retrieved via Report.
type Reporter struct {
	fieldPath  *Path
	fieldValue any
	report     *Report
}

// Issue is a warning or error for a field.
type Issue struct {
	Field    string
	BadValue any
	Detail   string
}

// NewIssue creates an Issue for the field at the given Path.
func NewIssue(field *Path, badValue any, detail string) Issue {
	return Issue{
		Field:    field.String(),
		BadValue: badValue,
		Detail:   detail,
	}
}

// Report holds all issues found during validation.
type Report struct {
	Warnings []Issue
	Errors   []Issue
}

// NewReport creates an empty Report.
func NewReport() *Report {
	return &Report{
		Warnings: make([]Issue, 0),
		Errors:   make([]Issue, 0),
	}
}

// AddReport appends all issues of the given Report.
func (r *Report) AddReport(otherReport *Report) {
	r.Warnings = append(r.Warnings, otherReport.Warnings...)
	r.Errors = append(r.Errors, otherReport.Errors...)
}

// OK reports whether the Report contains no errors. Warnings are allowed.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Log logs all issues of the Report. Errors are logged with error level and
// warnings with warn level. The subject describes the validated entity.
func (r *Report) Log(logger *zap.Logger, subject string) {
	for _, issue := range r.Errors {
		logger.Error(fmt.Sprintf("invalid %s field: %s: %s", subject, issue.Field, issue.Detail),
			zap.String("field", issue.Field),
			zap.Any("bad_value", issue.BadValue),
			zap.String("detail", issue.Detail))
	}
	for _, issue := range r.Warnings {
		logger.Warn(fmt.Sprintf("%s issue: %s: %s", subject, issue.Field, issue.Detail),
			zap.String("field", issue.Field),
			zap.Any("bad_value", issue.BadValue))
	}
}

// NextField sets the field that calls to Error and Warn will use.
func (r *Reporter) NextField(fieldPath *Path, fieldValue any) {
	r.fieldPath = fieldPath
	r.fieldValue = fieldValue
}

// Warn the given warning for the last field that was set via NextField.
func (r *Reporter) Warn(warnMsg string) {
	r.report.Warnings = append(r.report.Warnings, NewIssue(r.fieldPath, r.fieldValue, warnMsg))
}

// Error the given error for the last field that was set via NextField.
func (r *Reporter) Error(errMsg string) {
	r.report.Errors = append(r.report.Errors, NewIssue(r.fieldPath, r.fieldValue, errMsg))
}

// AddReport adds the given Report.
func (r *Reporter) AddReport(otherReport *Report) {
	r.report.AddReport(otherReport)
}

// Report returns the final Report that contains all issues.
func (r *Reporter) Report() *Report {
	return r.report
}

// NewReporter creates a new Reporter that is ready to use.
func NewReporter() *Reporter {
	return &Reporter{
		fieldPath:  nil,
		fieldValue: nil,
		report:     NewReport(),
	}
}

