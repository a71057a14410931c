package model

import "encoding/json"

// Step names the pipeline transition a ProgressEvent reports.
type Step string

const (
	StepCSVParsing       Step = "csv_parsing"
	StepItemGrouping     Step = "item_grouping"
	StepItemGroupingDone Step = "item_grouping_done"
	StepAnalysis         Step = "analysis"
	StepReport           Step = "report"
	StepPR               Step = "pr"
	StepEmail            Step = "email"
	StepGeneratingFile   Step = "generating_file"
	StepFileReady        Step = "file_ready"
	StepComplete         Step = "complete"
	StepError            Step = "error"
)

// ProgressEvent is one entry of the append-only, ordered per-run event
// sequence. The terminal event is either StepComplete (carrying the run
// result) or StepError (carrying a message).
type ProgressEvent struct {
	Step   Step
	Detail map[string]any
}

// Terminal reports whether this event ends the stream.
func (e ProgressEvent) Terminal() bool {
	return e.Step == StepComplete || e.Step == StepError
}

// MarshalJSON flattens the detail map into the event object so the wire
// shape is {"step": "...", ...detail}.
func (e ProgressEvent) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Detail)+1)
	for k, v := range e.Detail {
		m[k] = v
	}
	m["step"] = string(e.Step)
	return json.Marshal(m)
}
