package types

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/zeu5/hedge-rl/util"
)

type experimentRunConfig struct {
	// execution configuration
	CurrentRun int
	Episodes   int
	Horizon    int
	Seed       *uint64
	Analyzers  []Analyzer
	Context    context.Context
	Logger     zerolog.Logger

	// threshold to abort the experiment
	ConsecutiveErrorsAbort int
	// log progress every N episodes
	LogEvery int

	// record flags
	RecordTraces bool
	RecordPolicy bool

	ReportSavePath string
}

// Experiment encapsulates the different parameters to configure an agent and analyze the traces
type Experiment struct {
	Name        string
	policy      Policy
	environment Environment
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, policy Policy, environment Environment) *Experiment {
	return &Experiment{
		Name:        name,
		policy:      policy,
		environment: environment,
	}
}

// Policy of the experiment
func (e *Experiment) Policy() Policy {
	return e.policy
}

func (e *Experiment) recordTrace(rConfig *experimentRunConfig, trace *Trace) error {
	tracesFile := path.Join(rConfig.ReportSavePath, "traces", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".jsonl")
	bs, err := json.Marshal(trace)
	if err != nil {
		return err
	}
	return util.AppendToFile(tracesFile, string(bs))
}

// Run the experiment for the specified number of episodes, passing each trace to the analyzers
func (e *Experiment) Run(rConfig *experimentRunConfig) error {
	log := rConfig.Logger.With().Str("experiment", e.Name).Int("run", rConfig.CurrentRun).Logger()

	agent := NewAgent(&AgentConfig{
		Episodes:    rConfig.Episodes,
		Horizon:     rConfig.Horizon,
		Policy:      e.policy,
		Environment: e.environment,
	})

	consecutiveErrors := 0
	totalErrors := 0
	windowReward := 0.0
	windowEpisodes := 0

	for episode := 0; episode < rConfig.Episodes; episode++ {
		select {
		case <-rConfig.Context.Done():
			return rConfig.Context.Err()
		default:
		}

		eCtx := NewEpisodeContext(rConfig.Context, rConfig.CurrentRun, episode, e.Name)
		if episode == 0 && rConfig.Seed != nil {
			// same seed for every experiment of the run, so they see the same paths
			eCtx.WithSeed(*rConfig.Seed + uint64(rConfig.CurrentRun))
		}
		agent.RunEpisode(eCtx)

		if eCtx.Err != nil {
			totalErrors += 1
			consecutiveErrors += 1
			log.Warn().Err(eCtx.Err).Int("episode", episode).Msg("episode failed")
		} else {
			consecutiveErrors = 0
			windowReward += eCtx.TotalReward
			windowEpisodes += 1
		}

		if rConfig.RecordTraces {
			if err := e.recordTrace(rConfig, eCtx.Trace); err != nil {
				log.Error().Err(err).Msg("failed to record trace")
			}
		}

		// analyze the trace, even if the episode ended with an error
		for _, a := range rConfig.Analyzers {
			a.Analyze(rConfig.CurrentRun, episode, e.Name, eCtx.Trace)
		}

		if consecutiveErrors >= rConfig.ConsecutiveErrorsAbort {
			log.Error().Int("consecutive_errors", consecutiveErrors).Msg("aborting experiment")
			return fmt.Errorf("experiment %s aborted after %d consecutive errors: %w", e.Name, consecutiveErrors, eCtx.Err)
		}

		if rConfig.LogEvery > 0 && (episode+1)%rConfig.LogEvery == 0 {
			event := log.Info().Int("episode", episode+1).Int("episodes", rConfig.Episodes).Int("errors", totalErrors)
			if windowEpisodes > 0 {
				event = event.Float64("avg_reward", windowReward/float64(windowEpisodes))
			}
			if d, ok := e.policy.(EpsilonDecayer); ok {
				event = event.Float64("epsilon", d.Epsilon())
			}
			event.Msg("progress")
			windowReward = 0
			windowEpisodes = 0
		}
	}

	if rConfig.RecordPolicy {
		policyPath := path.Join(rConfig.ReportSavePath, "policies", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun))
		if err := e.policy.Record(policyPath); err != nil {
			return fmt.Errorf("recording policy of %s: %w", e.Name, err)
		}
	}
	log.Info().Int("errors", totalErrors).Msg("experiment completed")
	return nil
}

// Reset cleans what the policy learnt so far
func (e *Experiment) Reset() {
	e.policy.Reset()
}

// Generic Dataset that contains information after processing the traces
type DataSet interface{}

// Analyzer compresses the information in the traces to a DataSet
type Analyzer interface {
	// Run, episode, experiment, trace
	Analyze(int, int, string, *Trace)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// Comparator differentiates between different datasets with associated names
// run, experiment names, datasets
type Comparator func(int, []string, []DataSet) error

func NoopComparator() Comparator {
	return func(_ int, _ []string, _ []DataSet) error { return nil }
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs     int // number of runs
	Episodes int // number of episodes
	Horizon  int // number of steps

	// Seed of the environments at the first episode of each run (Seed+run), nil to keep their own sources
	Seed *uint64

	RecordPath string // path to store the results
	LogEvery   int    // progress log frequency in episodes

	// threshold to abort the experiment
	ConsecutiveErrorsAbort int

	// record flags
	RecordTraces bool
	RecordPolicy bool

	Logger zerolog.Logger
}

// Comparison contains the different experiments to compare
// The traces obtained from the experiments are analyzed
// The analyzed datasets are then compared
type Comparison struct {
	Experiments   []*Experiment
	analyzers     map[string]Analyzer
	comparators   map[string]Comparator
	analysisOrder []string
	cConfig       *ComparisonConfig
}

// NewComparison creates a comparison instance and the folders to store its results
func NewComparison(config *ComparisonConfig) (*Comparison, error) {
	if config.Runs <= 0 || config.Episodes <= 0 || config.Horizon <= 0 {
		return nil, fmt.Errorf("%w: runs, episodes and horizon must be positive", ErrConfiguration)
	}
	foldersToCreate := []string{""}
	if config.RecordTraces {
		foldersToCreate = append(foldersToCreate, "traces")
	}
	if config.RecordPolicy {
		foldersToCreate = append(foldersToCreate, "policies")
	}
	for _, s := range foldersToCreate {
		if err := os.MkdirAll(path.Join(config.RecordPath, s), 0777); err != nil {
			return nil, err
		}
	}

	return &Comparison{
		Experiments:   make([]*Experiment, 0),
		analyzers:     make(map[string]Analyzer),
		comparators:   make(map[string]Comparator),
		analysisOrder: make([]string, 0),
		cConfig:       config,
	}, nil
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	if _, ok := c.analyzers[name]; !ok {
		c.analysisOrder = append(c.analysisOrder, name)
	}
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() error {
	cfg := c.cConfig
	out := make(map[string]interface{})
	out["runs"] = cfg.Runs
	out["episodes"] = cfg.Episodes
	out["horizon"] = cfg.Horizon
	out["record_traces"] = cfg.RecordTraces
	out["record_policy"] = cfg.RecordPolicy
	if cfg.Seed != nil {
		out["seed"] = *cfg.Seed
	}

	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments
	out["analyzers"] = c.analysisOrder

	bs, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(cfg.RecordPath, "comparison_config.json"), bs, 0644)
}

func (c *Comparison) prepareRunConfig(ctx context.Context, run int) *experimentRunConfig {
	rCfg := &experimentRunConfig{
		CurrentRun:             run,
		Episodes:               c.cConfig.Episodes,
		Horizon:                c.cConfig.Horizon,
		Seed:                   c.cConfig.Seed,
		Analyzers:              make([]Analyzer, 0),
		Context:                ctx,
		Logger:                 c.cConfig.Logger,
		ConsecutiveErrorsAbort: c.cConfig.ConsecutiveErrorsAbort,
		LogEvery:               c.cConfig.LogEvery,
		RecordTraces:           c.cConfig.RecordTraces,
		RecordPolicy:           c.cConfig.RecordPolicy,
		ReportSavePath:         c.cConfig.RecordPath,
	}
	if rCfg.ConsecutiveErrorsAbort == 0 {
		rCfg.ConsecutiveErrorsAbort = 10
	}
	for _, name := range c.analysisOrder {
		rCfg.Analyzers = append(rCfg.Analyzers, c.analyzers[name])
	}
	return rCfg
}

// Run the comparison. Policies are reset between runs, except after the last one
// so that the learnt policies can be inspected or stored.
func (c *Comparison) Run(ctx context.Context) error {
	if err := c.recordConfig(); err != nil {
		return err
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		c.cConfig.Logger.Info().Int("run", run+1).Int("runs", c.cConfig.Runs).Msg("starting run")
		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			if run > 0 {
				e.Reset()
			}
			if err := e.Run(c.prepareRunConfig(ctx, run)); err != nil {
				return err
			}
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
		}
		for _, name := range c.analysisOrder {
			if err := c.comparators[name](run, names, datasets[name]); err != nil {
				return fmt.Errorf("comparator %s: %w", name, err)
			}
		}
	}
	return nil
}
