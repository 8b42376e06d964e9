package gpu

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Device names understood by the model helpers
const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// GPUDetector picks the inference device
type GPUDetector struct {
	logger     *zap.Logger
	preference string
	runCommand func(name string, args ...string) ([]byte, error)
	getenv     func(key string) string
}

// GPUInfo contains information about available GPU devices
type GPUInfo struct {
	Available     bool
	DeviceCount   int
	DeviceName    string
	DriverVersion string
}

// NewGPUDetector creates a detector. preference is auto, cpu or cuda; cpu and
// cuda skip detection.
func NewGPUDetector(logger *zap.Logger, preference string) *GPUDetector {
	return &GPUDetector{
		logger:     logger,
		preference: strings.ToLower(strings.TrimSpace(preference)),
		runCommand: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
		getenv: os.Getenv,
	}
}

// SelectDevice returns DeviceCUDA or DeviceCPU. Apple MPS is never selected
// because Whisper does not run reliably on it.
func (g *GPUDetector) SelectDevice() string {
	switch g.preference {
	case DeviceCPU:
		g.logger.Info("Using CPU", zap.String("reason", "configured"))
		return DeviceCPU
	case DeviceCUDA:
		g.logger.Info("Using GPU (CUDA)", zap.String("reason", "configured"))
		return DeviceCUDA
	}

	info := g.DetectGPU()
	if info.Available {
		name := info.DeviceName
		if name == "" {
			name = "unknown device"
		}
		g.logger.Info(fmt.Sprintf("Using GPU: %s (CUDA)", name),
			zap.Int("device_count", info.DeviceCount))
		return DeviceCUDA
	}

	g.logger.Info("Using CPU")
	return DeviceCPU
}

// DetectGPU detects available NVIDIA GPU devices
func (g *GPUDetector) DetectGPU() *GPUInfo {
	gpuInfo := &GPUInfo{}

	// Try nvidia-smi first, then the CUDA environment
	if err := g.detectWithNvidiaSMI(gpuInfo); err != nil {
		g.logger.Debug("nvidia-smi detection failed", zap.Error(err))
		if err := g.detectWithCUDAEnv(gpuInfo); err != nil {
			g.logger.Debug("CUDA environment detection failed", zap.Error(err))
		}
	}

	g.logger.Debug("GPU detection completed",
		zap.Bool("available", gpuInfo.Available),
		zap.Int("device_count", gpuInfo.DeviceCount),
		zap.String("device_name", gpuInfo.DeviceName))

	return gpuInfo
}

// detectWithNvidiaSMI attempts to detect GPU using nvidia-smi command
func (g *GPUDetector) detectWithNvidiaSMI(gpuInfo *GPUInfo) error {
	countOutput, err := g.runCommand("nvidia-smi", "--list-gpus")
	if err != nil {
		return fmt.Errorf("nvidia-smi command failed: %w", err)
	}

	// One line per GPU
	var deviceCount int
	for _, line := range strings.Split(string(countOutput), "\n") {
		if strings.TrimSpace(line) != "" {
			deviceCount++
		}
	}
	if deviceCount == 0 {
		return fmt.Errorf("no GPUs found by nvidia-smi")
	}

	gpuInfo.DeviceCount = deviceCount
	gpuInfo.Available = true

	infoOutput, err := g.runCommand("nvidia-smi", "--query-gpu=name,driver_version", "--format=csv,noheader,nounits", "--id=0")
	if err != nil {
		g.logger.Debug("nvidia-smi info query failed", zap.Error(err))
		return nil
	}

	// Format is "name, driver_version"
	first := strings.SplitN(strings.TrimSpace(string(infoOutput)), "\n", 2)[0]
	parts := strings.Split(first, ",")
	if len(parts) >= 2 {
		gpuInfo.DeviceName = strings.TrimSpace(parts[0])
		gpuInfo.DriverVersion = strings.TrimSpace(parts[1])
	}
	return nil
}

// detectWithCUDAEnv reads CUDA_VISIBLE_DEVICES
func (g *GPUDetector) detectWithCUDAEnv(gpuInfo *GPUInfo) error {
	visibleDevices := strings.TrimSpace(g.getenv("CUDA_VISIBLE_DEVICES"))
	if visibleDevices == "" {
		return fmt.Errorf("CUDA_VISIBLE_DEVICES not set")
	}
	if visibleDevices == "-1" || visibleDevices == "NoDevFiles" {
		return nil
	}

	for _, device := range strings.Split(visibleDevices, ",") {
		if strings.TrimSpace(device) != "" {
			gpuInfo.DeviceCount++
		}
	}
	gpuInfo.Available = gpuInfo.DeviceCount > 0
	return nil
}
