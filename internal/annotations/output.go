package annotations

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// OutputFormatter formats events for human-readable display, detecting
// terminal color support and falling back to plain text otherwise.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	return &OutputFormatter{useColor: useColor, writer: w}
}

// Handle implements the Handler signature - prints events as they occur.
func (f *OutputFormatter) Handle(event Event) {
	if out := f.Format(event); out != "" {
		fmt.Fprintln(f.writer, out)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := ""
	if event.Latency > 0 {
		latency = fmt.Sprintf("[%6s]", formatLatency(event.Latency))
	}

	switch event.Name {
	case StepBegin:
		return fmt.Sprintf("%s %s step %v pattern=(%v %v %v %v)",
			latency, f.colorize("→", color.FgCyan),
			event.Data["step"], event.Data["subject"], event.Data["predicate"],
			event.Data["direction"], event.Data["object"])

	case StepComplete:
		return fmt.Sprintf("%s %s step %v complete, %s",
			latency, f.colorize("✓", color.FgGreen),
			event.Data["step"], f.colorizeCount("rows", toInt(event.Data["rows"])))

	case StepError:
		return fmt.Sprintf("%s %s step %v failed: %v",
			latency, f.colorize("✗", color.FgRed), event.Data["step"], event.Data["error"])

	case ScatterDecision:
		mode := "in-place"
		if event.Data["scatter"] == true {
			mode = "scatter"
		}
		return fmt.Sprintf("%s %s decision=%s local_var=%v rows=%v",
			latency, f.colorize("⋔", color.FgYellow), mode,
			event.Data["local_var"], event.Data["rows"])

	case ScatterDispatch:
		return fmt.Sprintf("%s %s sub-query -> node %v tid %v, %s",
			latency, f.colorize("↗", color.FgYellow),
			event.Data["dst_sid"], event.Data["dst_tid"],
			f.colorizeCount("rows", toInt(event.Data["rows"])))

	case FastPathPush:
		return fmt.Sprintf("%s %s fast-path push, %s",
			latency, f.colorize("⇢", color.FgBlue),
			f.colorizeCount("rows", toInt(event.Data["rows"])))

	case ReplyMapRegistered:
		return fmt.Sprintf("%s %s reply-map[%v] awaiting %v replies",
			latency, f.colorize("+", color.FgBlue), event.Data["parent_id"], event.Data["count"])

	case ReplyMapMerged:
		return fmt.Sprintf("%s %s reply-map[%v] merged, %v remaining",
			latency, f.colorize("+", color.FgGreen), event.Data["parent_id"], event.Data["remaining"])

	case ReplyMapForwarded:
		return fmt.Sprintf("%s %s reply-map[%v] forwarded, %s",
			latency, f.colorize("=>", color.FgGreen), event.Data["parent_id"],
			f.colorizeCount("rows", toInt(event.Data["rows"])))

	case ReplyMapOrphan:
		return fmt.Sprintf("%s %s unknown parent %v, dropping reply",
			latency, f.colorize("!", color.FgRed), event.Data["parent_id"])

	case CorunBegin:
		return fmt.Sprintf("%s %s co-run probe range [%v,%v)",
			latency, f.colorize("∩", color.FgMagenta), event.Data["corun_step"], event.Data["fetch_step"])

	case CorunComplete:
		return fmt.Sprintf("%s %s co-run pruned %v -> %v rows",
			latency, f.colorize("∩", color.FgMagenta), event.Data["before"], event.Data["after"])

	case TransportStash:
		return fmt.Sprintf("%s %s send refused, stashed (%v pending)",
			latency, f.colorize("⏸", color.FgYellow), event.Data["pending"])

	case TransportRetry:
		return fmt.Sprintf("%s %s retried stash, %v pending",
			latency, f.colorize("↻", color.FgYellow), event.Data["pending"])

	case WorkStealClaim:
		return fmt.Sprintf("%s %s claimed work from tid %v (idle %v)",
			latency, f.colorize("⚒", color.FgMagenta), event.Data["nbr_tid"], event.Data["idle_for"])

	case QuerySubmitted:
		return fmt.Sprintf("%s %s query %v submitted", latency, f.colorize("▶", color.FgCyan), event.Data["id"])

	case QueryCompleted:
		return fmt.Sprintf("%s %s query %v done, %s",
			latency, f.colorize("■", color.FgGreen), event.Data["id"],
			f.colorizeCount("rows", toInt(event.Data["rows"])))

	default:
		return fmt.Sprintf("%s %s", latency, event.Name)
	}
}

func (f *OutputFormatter) colorize(s string, attr color.Attribute) string {
	if !f.useColor {
		return s
	}
	return color.New(attr).Sprint(s)
}

func (f *OutputFormatter) colorizeCount(label string, count int) string {
	if !f.useColor {
		return fmt.Sprintf("%d %s", count, label)
	}
	str := fmt.Sprintf("%d", count)
	switch {
	case count == 0:
		str = color.RedString(str)
	case count < 1000:
		str = color.GreenString(str)
	case count < 100000:
		str = color.YellowString(str)
	default:
		str = color.RedString(str)
	}
	return fmt.Sprintf("%s %s", str, label)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func formatLatency(d time.Duration) string {
	us := d.Microseconds()
	if us < 1000 {
		return fmt.Sprintf("%dus", us)
	}
	return fmt.Sprintf("%.2fms", float64(us)/1000.0)
}
