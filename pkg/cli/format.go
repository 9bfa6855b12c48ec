package cli

import "fmt"

// FormatDuration formats milliseconds to human readable string
func FormatDuration(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := float64(ms) / 1000
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	secs = secs - float64(mins*60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatHz formats a frequency or sample rate
func FormatHz(hz float64) string {
	switch {
	case hz >= 1e6:
		return fmt.Sprintf("%.3f MHz", hz/1e6)
	case hz >= 1e3:
		return fmt.Sprintf("%.1f kHz", hz/1e3)
	default:
		return fmt.Sprintf("%.1f Hz", hz)
	}
}

// FormatSamples formats a sample count with its playing time at rate
func FormatSamples(n, rate int) string {
	if rate <= 0 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d (%s)", n, FormatDuration(int(int64(n)*1000/int64(rate))))
}
