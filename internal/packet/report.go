package packet

import (
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/chroma/quick"
	"github.com/xvzc/ipksniff/internal/hexdump"
)

// TimeLayout is the layout of the timestamp on a summary line.
const TimeLayout = "2006-01-02T15:04:05.000-07:00"

// Reporter renders a classified frame as a summary line and a hex dump.
type Reporter struct {
	loc   *time.Location
	color bool
}

type ReporterOption func(*Reporter)

// WithLocation renders timestamps in loc instead of the local zone.
func WithLocation(loc *time.Location) ReporterOption {
	return func(r *Reporter) {
		r.loc = loc
	}
}

// WithColor highlights the dump for a terminal.
func WithColor(color bool) ReporterOption {
	return func(r *Reporter) {
		r.color = color
	}
}

func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{loc: time.Local}
	for _, o := range opts {
		o(r)
	}

	return r
}

// Summary returns the summary line of s without a trailing newline.
func (r *Reporter) Summary(s Summary) string {
	ts := s.Timestamp.In(r.loc).Format(TimeLayout) + " "

	switch s.Kind {
	case KindTCP, KindUDP:
		return fmt.Sprintf(
			"[%s] %s%s : %d > %s : %d, length %d bytes",
			s.Kind, ts, s.Src, s.SrcPort, s.Dst, s.DstPort, s.Length,
		)
	case KindARP:
		return fmt.Sprintf(
			"[%s] %s%s > %s , length %d bytes",
			s.Kind, ts, s.Src, s.Dst, s.Length,
		)
	default:
		return fmt.Sprintf(
			"[%s] %s%s > %s, length %d bytes",
			s.Kind, ts, s.Src, s.Dst, s.Length,
		)
	}
}

// Report writes the summary line of s followed by the dump of f.
func (r *Reporter) Report(w io.Writer, f Frame, s Summary) error {
	if _, err := fmt.Fprintln(w, r.Summary(s)); err != nil {
		return err
	}

	if !r.color {
		return hexdump.Write(w, f.Data)
	}

	dump := hexdump.String(f.Data)
	if dump == "" {
		return nil
	}

	return quick.Highlight(w, dump, "hexdump", "terminal16", "base16-snazzy")
}
