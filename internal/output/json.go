package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/ciwatch/internal/model"
)

// JSONFormatter writes one JSON document per tick.
type JSONFormatter struct {
	Pretty bool
}

// JSONOutput is the document written for each tick.
type JSONOutput struct {
	PullRequests []model.PRSnapshot `json:"pullRequests"`
}

// Format outputs snapshots as JSON
func (f *JSONFormatter) Format(snaps []model.PRSnapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(JSONOutput{PullRequests: sorted(snaps)})
}
