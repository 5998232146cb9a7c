package mcp

import (
	"encoding/json"

	"github.com/standardbeagle/quickreply/internal/semantic"
)

// MatchParams are the arguments of the match tool
type MatchParams struct {
	Input    string         `json:"input"`
	Warnings []UnknownField `json:"-"`
}

// UnmarshalJSON accepts "text" and "message" as aliases of "input"
func (p *MatchParams) UnmarshalJSON(data []byte) error {
	known := map[string]struct{}{"input": {}, "text": {}, "message": {}}
	raw, warnings, err := collectUnknownFields(data, known, nil)
	if err != nil {
		return err
	}
	for _, name := range []string{"input", "text", "message"} {
		if v, ok := raw[name]; ok {
			if err := json.Unmarshal(v, &p.Input); err != nil {
				return err
			}
			break
		}
	}
	p.Warnings = warnings
	return nil
}

// MatchBatchParams are the arguments of the match_batch tool
type MatchBatchParams struct {
	Inputs   []string       `json:"inputs"`
	Warnings []UnknownField `json:"-"`
}

// UnmarshalJSON reports unknown fields as warnings
func (p *MatchBatchParams) UnmarshalJSON(data []byte) error {
	raw, warnings, err := collectUnknownFields(data, map[string]struct{}{"inputs": {}}, nil)
	if err != nil {
		return err
	}
	if v, ok := raw["inputs"]; ok {
		if err := json.Unmarshal(v, &p.Inputs); err != nil {
			return err
		}
	}
	p.Warnings = warnings
	return nil
}

// PatternsParams are the arguments of the patterns tool
type PatternsParams struct {
	Limit    int            `json:"limit"`
	Warnings []UnknownField `json:"-"`
}

// UnmarshalJSON reports unknown fields as warnings
func (p *PatternsParams) UnmarshalJSON(data []byte) error {
	raw, warnings, err := collectUnknownFields(data, map[string]struct{}{"limit": {}}, nil)
	if err != nil {
		return err
	}
	if v, ok := raw["limit"]; ok {
		if err := json.Unmarshal(v, &p.Limit); err != nil {
			return err
		}
	}
	p.Warnings = warnings
	return nil
}

// ConfigureParams are the arguments of the configure tool. Absent fields
// keep their current value.
type ConfigureParams struct {
	Threshold          *float64                       `json:"threshold,omitempty"`
	Algorithms         []semantic.Algorithm           `json:"algorithms,omitempty"`
	Weights            map[semantic.Algorithm]float64 `json:"weights,omitempty"`
	Debug              *bool                          `json:"debug,omitempty"`
	CallTimeoutMs      *int                           `json:"call_timeout_ms,omitempty"`
	ProcessingBudgetMs *int                           `json:"processing_budget_ms,omitempty"`
	Resilience         *bool                          `json:"resilience,omitempty"`
	Warnings           []UnknownField                 `json:"-"`
}

// UnmarshalJSON reports unknown fields, including unknown weight names, as warnings
func (p *ConfigureParams) UnmarshalJSON(data []byte) error {
	known := map[string]struct{}{
		"threshold": {}, "algorithms": {}, "weights": {},
		"debug": {}, "call_timeout_ms": {}, "resilience": {},
		"processing_budget_ms": {}, "processingBudgetMs": {},
	}
	weightNames := make(map[string]struct{}, len(semantic.AlgorithmOrder))
	for _, alg := range semantic.AlgorithmOrder {
		weightNames[string(alg)] = struct{}{}
	}

	_, warnings, err := collectUnknownFields(data, known, map[string]map[string]struct{}{"weights": weightNames})
	if err != nil {
		return err
	}

	type alias ConfigureParams
	aux := struct {
		*alias
		ProcessingBudgetMsCamel *int `json:"processingBudgetMs,omitempty"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ProcessingBudgetMs == nil {
		p.ProcessingBudgetMs = aux.ProcessingBudgetMsCamel
	}
	p.Warnings = warnings
	return nil
}
