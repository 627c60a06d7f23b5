package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qcert/internal/audit"
	"github.com/remiblancher/qcert/internal/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log management",
	Long: `Commands for verifying and reading the audit log.

Every generate, install, renew and key generation is recorded when
--audit-log (or QCERT_AUDIT_LOG) is set. Events are chained with SHA-256
hashes so that edits, deletions and insertions are detectable.

Examples:
  qcert audit verify --log /var/log/qcert/audit.jsonl
  qcert audit tail --log /var/log/qcert/audit.jsonl -n 5`,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit log integrity",
	Long: `Verify the hash chain of an audit log file.

The first event has hash_prev="sha256:genesis" and each following event
carries the hash of the one before it.`,
	RunE: runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent audit events",
	RunE:  runAuditTail,
}

var (
	auditLogFile  string
	auditTailNum  int
	auditShowJSON bool
)

func init() {
	auditVerifyCmd.Flags().StringVar(&auditLogFile, "log", "", "Path to audit log file (required)")
	_ = auditVerifyCmd.MarkFlagRequired("log")

	auditTailCmd.Flags().StringVar(&auditLogFile, "log", "", "Path to audit log file (required)")
	_ = auditTailCmd.MarkFlagRequired("log")
	auditTailCmd.Flags().IntVarP(&auditTailNum, "num", "n", 10, "Number of events to show")
	auditTailCmd.Flags().BoolVar(&auditShowJSON, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Verifying audit log: %s\n\n", auditLogFile)

	count, err := audit.VerifyChain(auditLogFile)
	if err != nil {
		fmt.Fprintf(out, "VERIFICATION FAILED\n")
		fmt.Fprintf(out, "  Valid events: %d\n", count)
		fmt.Fprintf(out, "  Error: %s\n", err)
		return fmt.Errorf("audit log verification failed: %w", err)
	}

	fmt.Fprintf(out, "VERIFICATION PASSED\n")
	fmt.Fprintf(out, "  Total events: %d\n", count)
	fmt.Fprintf(out, "  Hash chain: VALID\n")
	return nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	events, err := audit.ReadEvents(auditLogFile)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "Audit log is empty")
		return nil
	}

	if auditTailNum >= 0 && len(events) > auditTailNum {
		events = events[len(events)-auditTailNum:]
	}

	if auditShowJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	for i := range events {
		cli.PrintEvent(out, &events[i])
	}
	return nil
}
