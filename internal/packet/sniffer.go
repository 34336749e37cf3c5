package packet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/rs/zerolog"
	"github.com/xvzc/ipksniff/internal/logging"
)

var ErrSourceClosed = errors.New("capture source closed")

// Status is the terminal state of a capture run.
type Status int

const (
	// StatusSuccess means the requested number of frames was reported.
	StatusSuccess Status = iota
	// StatusInterrupted means the context was canceled first.
	StatusInterrupted
	// StatusInternalError means the device failed or a frame fell
	// outside the supported protocols.
	StatusInternalError
)

var statusNames = []string{"success", "interrupted", "internal-error"}

func (s Status) String() string {
	return statusNames[s]
}

// OpenFunc opens the capture device.
type OpenFunc func() (Handle, error)

type SnifferAttrs struct {
	// Filter is a libpcap filter expression.
	Filter string

	// Limit is the number of frames to report before returning.
	Limit int
}

// Sniffer reports captured frames until Limit of them were reported.
// It owns the handle it opens and closes it before Run returns.
type Sniffer struct {
	logger   zerolog.Logger
	open     OpenFunc
	reporter *Reporter
	out      io.Writer
	attrs    SnifferAttrs

	reported int
}

func NewSniffer(
	logger zerolog.Logger,
	open OpenFunc,
	reporter *Reporter,
	out io.Writer,
	attrs SnifferAttrs,
) *Sniffer {
	return &Sniffer{
		logger:   logger,
		open:     open,
		reporter: reporter,
		out:      out,
		attrs:    attrs,
	}
}

// Reported returns the number of frames reported so far.
func (s *Sniffer) Reported() int {
	return s.reported
}

// Run opens the device, installs the filter and reports frames one at a
// time. It returns StatusSuccess once Limit frames were reported. No
// frame is read after that. Cancellation is noticed between reads, so
// the handle needs a read timeout.
func (s *Sniffer) Run(ctx context.Context) (Status, error) {
	logger := logging.WithLocalScope(ctx, s.logger, "run")

	handle, err := s.open()
	if err != nil {
		return StatusInternalError, fmt.Errorf("failed to open device: %w", err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter(s.attrs.Filter); err != nil {
		return StatusInternalError, fmt.Errorf(
			"failed to set bpf filter to %q: %w", s.attrs.Filter, err,
		)
	}

	logger.Debug().
		Str("filter", s.attrs.Filter).
		Int("limit", s.attrs.Limit).
		Msg("capture started")

	linkType := handle.LinkType()
	packetSource := gopacket.NewPacketSource(handle, linkType)
	packetSource.DecodeOptions = decodeOptions

	for {
		if err := ctx.Err(); err != nil {
			return StatusInterrupted, err
		}

		p, err := packetSource.NextPacket()
		if err != nil {
			if isRetryable(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return StatusInternalError, ErrSourceClosed
			}
			return StatusInternalError, fmt.Errorf("failed to read frame: %w", err)
		}

		done, err := s.handleFrame(ctx, FrameFromPacket(p, linkType))
		if err != nil {
			return StatusInternalError, err
		}

		if done {
			logger.Debug().Int("reported", s.reported).Msg("capture finished")
			return StatusSuccess, nil
		}
	}
}

// isRetryable reports whether a read error only means that nothing
// arrived before the read timeout.
func isRetryable(err error) bool {
	if errors.Is(err, pcap.NextErrorTimeoutExpired) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EINTR) {
		return true
	}

	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// handleFrame reports f and reports whether the limit was reached.
func (s *Sniffer) handleFrame(ctx context.Context, f Frame) (bool, error) {
	logger := logging.WithLocalScope(ctx, s.logger, "frame")

	summary, err := Classify(f)
	if IsSkippable(err) {
		logger.Trace().Err(err).Int("len", len(f.Data)).Msg("frame skipped")
		return false, nil
	} else if err != nil {
		return false, err
	}

	if err := s.reporter.Report(s.out, f, summary); err != nil {
		return false, fmt.Errorf("failed to write report: %w", err)
	}

	s.reported++
	if s.reported >= s.attrs.Limit {
		return true, nil
	}

	if _, err := fmt.Fprintln(s.out); err != nil {
		return false, fmt.Errorf("failed to write report: %w", err)
	}

	return false, nil
}
