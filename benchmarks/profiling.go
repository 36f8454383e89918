package benchmarks

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"runtime/pprof"

	"github.com/rs/zerolog"
)

// startProfiling starts the CPU profile when requested. The returned function
// stops it and writes the heap profile when requested.
func startProfiling(saveFile string, log zerolog.Logger) (func(), error) {
	stops := make([]func(), 0)
	stop := func() {
		for _, s := range stops {
			s()
		}
	}
	if cpuprofile == "" && memprofile == "" {
		return stop, nil
	}
	if err := os.MkdirAll(saveFile, 0777); err != nil {
		return nil, err
	}

	if cpuprofile != "" {
		cpuProfPath := path.Join(saveFile, cpuprofile)
		log.Info().Str("path", cpuProfPath).Msg("profiling CPU")
		f, err := os.Create(cpuProfPath)
		if err != nil {
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if memprofile != "" {
		memProfPath := path.Join(saveFile, memprofile)
		stops = append(stops, func() {
			log.Info().Str("path", memProfPath).Msg("profiling memory")
			f, err := os.Create(memProfPath)
			if err != nil {
				log.Error().Err(err).Msg("could not create memory profile")
				return
			}
			defer f.Close()
			runtime.GC() // get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Error().Err(err).Msg("could not write memory profile")
			}
		})
	}
	return stop, nil
}
