// Package domain provides the core business rules for the lead lifecycle:
// the pipeline graph, the status state machine, follow-up payload rules, and
// transition decisions. Everything here is pure; persistence and
// authorization live elsewhere.
package domain

import "fmt"

// Stage identifies the department that currently owns a lead.
type Stage string

const (
	StageTele      Stage = "tele"
	StageField     Stage = "field"
	StageAssociate Stage = "associate"
	StageCorporate Stage = "corporate"
	StageTechnical Stage = "technical"
	StageSolution  Stage = "solution"
	StageQuotation Stage = "quotation"
	StagePayments  Stage = "payments"
)

// pipelineEdges is the directed handoff graph between departments. A stage
// change is only valid along these edges unless the actor holds the
// cross-department head override.
var pipelineEdges = map[Stage][]Stage{
	StageTele:      {StageField, StageAssociate, StageCorporate},
	StageField:     {StageTechnical, StageSolution},
	StageAssociate: {StageTechnical, StageSolution},
	StageCorporate: {StageTechnical, StageSolution},
	StageTechnical: {StageQuotation},
	StageSolution:  {StageQuotation},
	StageQuotation: {StagePayments},
	// payments is the end of the pipeline
}

var knownStages = map[Stage]struct{}{
	StageTele:      {},
	StageField:     {},
	StageAssociate: {},
	StageCorporate: {},
	StageTechnical: {},
	StageSolution:  {},
	StageQuotation: {},
	StagePayments:  {},
}

// ParseStage converts a raw string to a Stage, returning an error for
// unknown values.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if _, ok := knownStages[stage]; !ok {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return stage, nil
}

// IsKnownStage reports whether the value names a pipeline department.
func IsKnownStage(s string) bool {
	_, ok := knownStages[Stage(s)]
	return ok
}

// IsPipelineEdge reports whether from → to is a declared handoff edge.
func IsPipelineEdge(from, to Stage) bool {
	for _, next := range pipelineEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStages returns the stages reachable from the given stage along the
// pipeline, in declaration order. The returned slice is a copy.
func NextStages(from Stage) []Stage {
	return append([]Stage(nil), pipelineEdges[from]...)
}
