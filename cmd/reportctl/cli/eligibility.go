package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/odyssey-erp/moneyreport/internal/eligibility"
)

// Explain decodes a snapshot document and writes the computed visibility.
func Explain(in io.Reader, out io.Writer) error {
	var snap eligibility.Snapshot
	if err := json.NewDecoder(in).Decode(&snap); err != nil {
		return fmt.Errorf("explain: decode snapshot: %w", err)
	}
	v := eligibility.Compute(snap)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		eligibility.ActionVisibility
		ShowAnyButton bool `json:"showAnyButton"`
	}{v, v.ShowAnyButton()})
}
