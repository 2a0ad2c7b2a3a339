package replay

import (
	"github.com/rs/zerolog"

	"github.com/openism/pulsewire/pkg/bitbuffer"
	"github.com/openism/pulsewire/pkg/slicer"
)

// LogSink is the catch-all frame consumer for protocols without a dedicated
// decoder: it picks the most trustworthy row, the first one repeated often
// enough, and logs it.
type LogSink struct {
	logger     zerolog.Logger
	minRepeats int
	minBits    int
}

func NewLogSink(logger zerolog.Logger, minRepeats, minBits int) *LogSink {
	if minRepeats < 1 {
		minRepeats = 1
	}
	return &LogSink{
		logger:     logger,
		minRepeats: minRepeats,
		minBits:    minBits,
	}
}

func (s *LogSink) OnFrame(b *bitbuffer.Buffer) slicer.Outcome {
	empty := true
	for row := 0; row < b.NumRows(); row++ {
		if b.RowLen(row) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return slicer.Failure(slicer.AbortEarly)
	}

	row := b.FindRepeatedRow(s.minRepeats, s.minBits)
	if row < 0 {
		return slicer.Failure(slicer.AbortLength)
	}

	s.logger.Info().
		Int("row", row).
		Int("bits", b.RowLen(row)).
		Stringer("frame", b).
		Msg("decoded frame")
	return slicer.Success(1)
}
