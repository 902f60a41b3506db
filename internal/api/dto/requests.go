package dto

import "github.com/eshaffer321/alertledger/internal/domain/message"

// AlertRequest is the body of POST /api/alerts. It carries either a list of
// messages or a single message inline.
type AlertRequest struct {
	Messages []message.Body `json:"messages"`
	Text     string         `json:"text"`
	HTML     string         `json:"html"`
	DryRun   bool           `json:"dry_run"`
}

// Bodies returns the messages of the request. An inline message is appended
// after the list.
func (r AlertRequest) Bodies() []message.Body {
	bodies := make([]message.Body, 0, len(r.Messages)+1)
	bodies = append(bodies, r.Messages...)
	if r.Text != "" || r.HTML != "" {
		bodies = append(bodies, message.Body{Text: r.Text, HTML: r.HTML})
	}
	return bodies
}

// RowListParams represents query parameters for listing rows.
type RowListParams struct {
	Channel string `json:"channel"`
	RunID   string `json:"run_id"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

// RunListParams represents query parameters for listing runs.
type RunListParams struct {
	Limit int `json:"limit"`
}

// DefaultRowListParams returns default values for row list params.
func DefaultRowListParams() RowListParams {
	return RowListParams{
		Limit:  50,
		Offset: 0,
	}
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{
		Limit: 20,
	}
}
