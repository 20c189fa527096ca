package cmd

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/ghissues-agent/internal/log"
)

// profiler manages CPU, memory, and trace profiling for a serve session.
type profiler struct {
	cpuFile   *os.File
	traceFile *os.File

	cpuProfile string
	memProfile string
	tracePath  string
}

// newProfiler creates a profiler from the serve flags.
// Empty paths disable the corresponding profile.
func newProfiler(cpuProfile, memProfile, tracePath string) *profiler {
	return &profiler{
		cpuProfile: cpuProfile,
		memProfile: memProfile,
		tracePath:  tracePath,
	}
}

// Start begins CPU profiling and execution tracing if configured.
func (p *profiler) Start() error {
	if p.cpuProfile != "" {
		f, err := os.Create(p.cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		p.cpuFile = f
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = p.cpuFile.Close()
			p.cpuFile = nil
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
	}

	if p.tracePath != "" {
		f, err := os.Create(p.tracePath)
		if err != nil {
			p.stopCPU()
			return fmt.Errorf("could not create trace: %w", err)
		}
		p.traceFile = f
		if err := trace.Start(f); err != nil {
			_ = p.traceFile.Close()
			p.traceFile = nil
			p.stopCPU()
			return fmt.Errorf("could not start trace: %w", err)
		}
	}

	return nil
}

// Stop ends all profiling and writes memory profile if configured.
func (p *profiler) Stop() {
	if p.traceFile != nil {
		trace.Stop()
		if err := p.traceFile.Close(); err != nil {
			log.Warn("could not close trace file", "error", err)
		}
		p.traceFile = nil
	}

	p.stopCPU()

	// Write memory profile
	if p.memProfile != "" {
		f, err := os.Create(p.memProfile)
		if err != nil {
			log.Warn("could not create memory profile", "error", err)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Warn("could not close memory profile file", "error", err)
			}
		}()
		runtime.GC() // Get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Warn("could not write memory profile", "error", err)
		}
	}
}

func (p *profiler) stopCPU() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			log.Warn("could not close CPU profile file", "error", err)
		}
		p.cpuFile = nil
	}
}
