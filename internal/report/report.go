// Package report serializes a BatchReport into the external-facing
// structured form consumed by machine callers.
package report

import (
	"encoding/json"
	"io"

	"github.com/okapos/branchsync/internal/model"
)

// Result is the wire form of one repository outcome. The field set is part
// of the external contract; additions require coordination with consumers.
type Result struct {
	Repo       string `json:"repo"`
	RepoName   string `json:"repo_name"`
	Success    bool   `json:"success"`
	FromBranch string `json:"from_branch"`
	ToBranch   string `json:"to_branch"`
	Forced     bool   `json:"forced"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Report is the wire form of a batch run.
type Report struct {
	Success   bool     `json:"success"`
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Results   []Result `json:"results"`
}

// Build maps a BatchReport onto the wire form.
func Build(batch model.BatchReport) Report {
	out := Report{
		Success:   batch.Success(),
		Total:     batch.Total,
		Succeeded: batch.Succeeded,
		Failed:    batch.Failed,
		Skipped:   batch.Skipped,
		Results:   make([]Result, 0, len(batch.Results)),
	}
	for _, res := range batch.Results {
		out.Results = append(out.Results, Result{
			Repo:       res.Repo,
			RepoName:   res.RepoName,
			Success:    res.Success,
			FromBranch: res.FromBranch,
			ToBranch:   res.ToBranch,
			Forced:     res.Forced,
			Message:    res.Message,
			Error:      res.Error,
			Suggestion: res.Suggestion,
		})
	}
	return out
}

// WriteJSON writes the indented wire form of the batch report.
func WriteJSON(w io.Writer, batch model.BatchReport) error {
	data, err := json.MarshalIndent(Build(batch), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
