package services

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/edbx/internal/metrics"
	"github.com/desertthunder/edbx/internal/repositories"
	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/waveform"
)

// WaveformService returns overview waveform previews.
type WaveformService struct {
	lib    Library
	logger *log.Logger
}

// NewWaveformService creates a WaveformService.
func NewWaveformService(lib Library, logger *log.Logger) *WaveformService {
	return &WaveformService{lib: lib, logger: logger}
}

// Get returns the preview of each requested track. Every id is present in the result;
// tracks without data or with an unreadable blob map to nil.
func (s *WaveformService) Get(ctx context.Context, trackIDs []int64) (previews map[int64][]waveform.Bar, err error) {
	defer observe("waveform.get", time.Now(), &err)

	var blobs map[int64][]byte
	err = s.lib.View(ctx, func(q shared.Querier) error {
		blobs, err = repositories.NewPerformanceRepository(q).OverviewWaveforms(ctx, trackIDs)
		return err
	})
	switch {
	case errors.Is(err, shared.ErrSchemaMissing):
		s.logger.Debug("library has no performance data")
		blobs, err = nil, nil
	case err != nil:
		return nil, err
	}

	previews = make(map[int64][]waveform.Bar, len(trackIDs))
	for _, id := range trackIDs {
		blob, ok := blobs[id]
		if !ok {
			previews[id] = nil
			metrics.WaveformDecodesTotal.WithLabelValues("absent").Inc()
			continue
		}
		bars := waveform.Decode(blob)
		if bars == nil {
			s.logger.Debug("unreadable waveform", "track", id, "bytes", len(blob))
			metrics.WaveformDecodesTotal.WithLabelValues("corrupt").Inc()
		} else {
			metrics.WaveformDecodesTotal.WithLabelValues("ok").Inc()
		}
		previews[id] = bars
	}
	return previews, nil
}
