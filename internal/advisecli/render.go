package advisecli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/okian/overcall/internal/domain/types"
)

// Render writes resp to w, as indented JSON or as a short coach-facing summary.
func Render(w io.Writer, resp types.AdviceResponse, asJSON bool) error { //nolint:gocritic // hugeParam
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	var b strings.Builder
	fd := resp.FinalDecision
	rd := resp.RouterDecision

	fmt.Fprintf(&b, "request:    %s\n", resp.RequestID)
	fmt.Fprintf(&b, "intent:     %s (%s)\n", rd.Intent, rd.Source)
	fmt.Fprintf(&b, "agents:     %s\n", joinAgents(rd.SelectedAgents))
	if len(rd.RulesFired) > 0 {
		fmt.Fprintf(&b, "rules:      %s\n", strings.Join(rd.RulesFired, ", "))
	}
	fmt.Fprintf(&b, "action:     %s\n", fd.ImmediateAction)
	fmt.Fprintf(&b, "confidence: %.2f\n", fd.Confidence)
	fmt.Fprintf(&b, "source:     %s\n", fd.Source)
	if fd.Rationale != "" {
		fmt.Fprintf(&b, "rationale:  %s\n", fd.Rationale)
	}
	if fd.Replacement != nil {
		fmt.Fprintf(&b, "replace:    %s (%s, %.2f)\n", fd.Replacement.Name, fd.Replacement.PlayerID, fd.Replacement.Score)
	}
	for _, adj := range fd.SuggestedAdjustments {
		fmt.Fprintf(&b, "  - %s\n", adj)
	}
	for _, d := range resp.Degraded {
		fmt.Fprintf(&b, "degraded:   %s: %s\n", d.Layer, d.Reason)
	}
	for _, e := range resp.Errors {
		fmt.Fprintf(&b, "error:      %s: %s\n", e.Agent, e.Message)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func joinAgents(agents []types.Agent) string {
	parts := make([]string, len(agents))
	for i, a := range agents {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}
