package driver

import (
	"encoding/json"
	"fmt"

	"veil/internal/diag"
	"veil/internal/observ"
	"veil/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Program string               `json:"program,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records the timing report as an info diagnostic
// whose note carries the JSON payload.
func appendTimingDiagnostic(bag *diag.Bag, program string, report observ.Report) {
	if bag == nil {
		return
	}
	payload := timingPayload{Kind: "pipeline", Program: program, TotalMS: report.TotalMS, Phases: report.Phases}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if program != "" {
		msg += ", " + program
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.New(diag.SevInfo, diag.PipInfo, source.Span{}, msg)
	entry.Notes = []diag.Note{{Span: source.Span{}, Msg: string(data)}}

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(bag.Len() + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
