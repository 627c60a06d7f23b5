package cli

import (
	"fmt"
	"io"

	"github.com/remiblancher/qcert/internal/audit"
)

// PrintEvent writes a human-readable audit event to w.
func PrintEvent(w io.Writer, e *audit.Event) {
	fmt.Fprintf(w, "[%s] %s %s\n", e.Timestamp, ResultIcon(e.Result != audit.ResultFailure), e.EventType)
	fmt.Fprintf(w, "    Actor:  %s@%s (%s)\n", e.Actor.ID, e.Actor.Host, e.Actor.Type)

	if e.Object.Type != "" {
		fmt.Fprintf(w, "    Object: %s", e.Object.Type)
		if e.Object.Serial != "" {
			fmt.Fprintf(w, " serial=%s", e.Object.Serial)
		}
		if e.Object.Subject != "" {
			fmt.Fprintf(w, " subject=%s", e.Object.Subject)
		}
		if e.Object.Path != "" {
			fmt.Fprintf(w, " path=%s", e.Object.Path)
		}
		fmt.Fprintln(w)
	}

	c := e.Context
	if c.Algorithm != "" || c.NotAfter != "" || c.SAN != "" || c.Reason != "" || c.RequestID != "" {
		fmt.Fprint(w, "    Context:")
		if c.Algorithm != "" {
			fmt.Fprintf(w, " algorithm=%s", c.Algorithm)
		}
		if c.NotAfter != "" {
			fmt.Fprintf(w, " not_after=%s", c.NotAfter)
		}
		if c.SAN != "" {
			fmt.Fprintf(w, " san=%q", c.SAN)
		}
		if c.RequestID != "" {
			fmt.Fprintf(w, " request_id=%s", c.RequestID)
		}
		if c.Reason != "" {
			fmt.Fprintf(w, " reason=%s", c.Reason)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
}
