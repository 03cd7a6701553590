// Package device decides where a model runs: it probes for an accelerator and
// maps the result to an execution profile (device + numeric format).
package device

import (
	"fmt"
	"os"
	"strings"

	"promptd/internal/common/fsutil"
)

const (
	CPU  = "cpu"
	CUDA = "cuda"
	Auto = "auto"
)

// Numeric formats. Reduced precision is only used on an accelerator.
const (
	FormatDefault = "default"
	FormatBF16    = "bf16"
)

// Profile is the execution placement chosen at load time.
type Profile struct {
	Device        string
	NumericFormat string
}

// Accelerated reports whether the profile targets an accelerator.
func (p Profile) Accelerated() bool { return p.Device == CUDA }

func (p Profile) String() string { return p.Device + "/" + p.NumericFormat }

// ChooseExecutionProfile maps accelerator availability to a profile.
func ChooseExecutionProfile(acceleratorAvailable bool) Profile {
	if acceleratorAvailable {
		return Profile{Device: CUDA, NumericFormat: FormatBF16}
	}
	return Profile{Device: CPU, NumericFormat: FormatDefault}
}

// Prober reports whether an accelerator is usable by this process.
type Prober interface {
	AcceleratorAvailable() (bool, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func() (bool, error)

func (f ProberFunc) AcceleratorAvailable() (bool, error) { return f() }

// Fixed returns a Prober with a constant answer.
func Fixed(available bool) Prober {
	return ProberFunc(func() (bool, error) { return available, nil })
}

// Normalize validates a device mode string.
func Normalize(name string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(name))
	if mode == "" {
		return Auto, nil
	}
	switch mode {
	case CPU, CUDA, Auto:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown device %q (expected auto, cpu, or cuda)", name)
	}
}

// NewProber returns the prober for a configured mode: cpu and cuda force the
// answer, auto inspects the host.
func NewProber(mode string) (Prober, error) {
	m, err := Normalize(mode)
	if err != nil {
		return nil, err
	}
	switch m {
	case CPU:
		return Fixed(false), nil
	case CUDA:
		return Fixed(true), nil
	default:
		return HostProber{}, nil
	}
}

// nvidiaPaths are driver artifacts present when an NVIDIA GPU is usable.
var nvidiaPaths = []string{
	"/proc/driver/nvidia/version",
	"/dev/nvidiactl",
	"/dev/nvidia0",
}

// HostProber detects an NVIDIA accelerator from driver files. Setting
// CUDA_VISIBLE_DEVICES to "" or "-1" hides all devices.
type HostProber struct {
	// Paths overrides the driver files to look for (tests).
	Paths []string
}

func (h HostProber) AcceleratorAvailable() (bool, error) {
	if v, ok := os.LookupEnv("CUDA_VISIBLE_DEVICES"); ok {
		v = strings.TrimSpace(v)
		if v == "" || v == "-1" {
			return false, nil
		}
	}
	paths := h.Paths
	if paths == nil {
		paths = nvidiaPaths
	}
	return fsutil.FirstExisting(paths...) != "", nil
}
