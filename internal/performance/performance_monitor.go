package performance

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pipeline stage names.
const (
	StageDiarization   = "diarization"
	StageTranscription = "transcription"
	StageAlignment     = "alignment"
	StageOutput        = "output"
)

// StageMetrics records one completed pipeline stage
type StageMetrics struct {
	Name           string
	ProcessingTime time.Duration
	AudioSeconds   float64
	Device         string
}

// SpeedRatio returns how many seconds of audio were processed per second of
// wall time, 0 when either side is unknown.
func (sm StageMetrics) SpeedRatio() float64 {
	if sm.AudioSeconds <= 0 || sm.ProcessingTime <= 0 {
		return 0
	}
	return sm.AudioSeconds / sm.ProcessingTime.Seconds()
}

// PerformanceMetrics tracks the stages of one transcription run
type PerformanceMetrics struct {
	Stages              []StageMetrics
	TotalProcessingTime time.Duration
	StartTime           time.Time
}

// StageTimer tracks timing for an individual stage
type StageTimer struct {
	Name      string
	StartTime time.Time
	Device    string
}

// PerformanceMonitor handles performance tracking and reporting
type PerformanceMonitor struct {
	logger    *zap.Logger
	metrics   PerformanceMetrics
	mu        sync.RWMutex
	benchmark bool
	now       func() time.Time
}

// NewPerformanceMonitor creates a new performance monitor
func NewPerformanceMonitor(logger *zap.Logger) *PerformanceMonitor {
	return &PerformanceMonitor{
		logger:  logger,
		metrics: PerformanceMetrics{StartTime: time.Now()},
		now:     time.Now,
	}
}

// NewPerformanceMonitorWithBenchmark creates a performance monitor with benchmarking enabled
func NewPerformanceMonitorWithBenchmark(logger *zap.Logger, benchmark bool) *PerformanceMonitor {
	pm := NewPerformanceMonitor(logger)
	pm.benchmark = benchmark
	return pm
}

// StartStage begins timing a pipeline stage
func (pm *PerformanceMonitor) StartStage(name, device string) *StageTimer {
	return &StageTimer{
		Name:      name,
		StartTime: pm.now(),
		Device:    device,
	}
}

// EndStage completes timing and records the stage. audioSeconds may be 0
// when the audio length is unknown.
func (pm *PerformanceMonitor) EndStage(timer *StageTimer, audioSeconds float64) StageMetrics {
	stage := StageMetrics{
		Name:           timer.Name,
		ProcessingTime: pm.now().Sub(timer.StartTime),
		AudioSeconds:   audioSeconds,
		Device:         timer.Device,
	}

	pm.mu.Lock()
	pm.metrics.Stages = append(pm.metrics.Stages, stage)
	pm.metrics.TotalProcessingTime += stage.ProcessingTime
	benchmark := pm.benchmark
	pm.mu.Unlock()

	fields := []zap.Field{
		zap.String("stage", stage.Name),
		zap.Duration("processing_time", stage.ProcessingTime),
	}
	if stage.Device != "" {
		fields = append(fields, zap.String("device", stage.Device))
	}
	if ratio := stage.SpeedRatio(); ratio > 0 {
		fields = append(fields, zap.Float64("realtime_factor", ratio))
	}
	if benchmark {
		pm.logger.Info("stage performance", fields...)
	} else {
		pm.logger.Debug("stage performance", fields...)
	}

	return stage
}

// GetMetrics returns a copy of current metrics
func (pm *PerformanceMonitor) GetMetrics() PerformanceMetrics {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	metrics := pm.metrics
	metrics.Stages = append([]StageMetrics(nil), pm.metrics.Stages...)
	return metrics
}

// GetPerformanceSummary returns a formatted summary of performance metrics
func (pm *PerformanceMonitor) GetPerformanceSummary() string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if len(pm.metrics.Stages) == 0 {
		return "No stage metrics available"
	}

	var b strings.Builder
	b.WriteString("Performance Summary:\n")
	for _, stage := range pm.metrics.Stages {
		fmt.Fprintf(&b, "  %s: %.1fs", stage.Name, stage.ProcessingTime.Seconds())
		if ratio := stage.SpeedRatio(); ratio > 0 {
			fmt.Fprintf(&b, " (%.1fx real-time)", ratio)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  Total: %.1fs\n", pm.metrics.TotalProcessingTime.Seconds())
	return b.String()
}

// ResetMetrics clears all accumulated metrics
func (pm *PerformanceMonitor) ResetMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.metrics = PerformanceMetrics{StartTime: pm.now()}
	pm.logger.Debug("performance metrics reset")
}

// LogCurrentMetrics logs the current performance metrics
func (pm *PerformanceMonitor) LogCurrentMetrics() {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for _, stage := range pm.metrics.Stages {
		pm.logger.Info("stage metrics",
			zap.String("stage", stage.Name),
			zap.Duration("processing_time", stage.ProcessingTime),
			zap.Float64("audio_seconds", stage.AudioSeconds),
			zap.Float64("realtime_factor", stage.SpeedRatio()))
	}
	pm.logger.Info("current performance metrics",
		zap.Int("stages", len(pm.metrics.Stages)),
		zap.Duration("total_processing_time", pm.metrics.TotalProcessingTime))
}
