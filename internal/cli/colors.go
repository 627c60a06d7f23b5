package cli

import "github.com/fatih/color"

// FormatStatus returns a colored status string.
func FormatStatus(status string) string {
	switch status {
	case "valid", "signed":
		return color.GreenString("%s", status)
	case "expired", "invalid", "failure":
		return color.RedString("%s", status)
	case "configured", "expiring":
		return color.YellowString("%s", status)
	default:
		return status
	}
}

// ResultIcon returns a colored mark for an operation result.
func ResultIcon(success bool) string {
	if success {
		return color.GreenString("✓")
	}
	return color.RedString("✗")
}
