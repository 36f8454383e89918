package hedge

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/zeu5/hedge-rl/types"
	"github.com/zeu5/hedge-rl/util"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// RewardAnalyzer collects the total reward of every episode
type RewardAnalyzer struct {
	rewards []float64
}

var _ types.Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer() *RewardAnalyzer {
	return &RewardAnalyzer{rewards: make([]float64, 0)}
}

func (r *RewardAnalyzer) Analyze(_ int, _ int, _ string, trace *types.Trace) {
	r.rewards = append(r.rewards, trace.TotalReward())
}

func (r *RewardAnalyzer) DataSet() types.DataSet {
	out := make([]float64, len(r.rewards))
	copy(out, r.rewards)
	return out
}

func (r *RewardAnalyzer) Reset() {
	r.rewards = make([]float64, 0)
}

// PnLAnalyzer collects the hedge P&L at maturity of every completed episode
type PnLAnalyzer struct {
	pnls []float64
}

var _ types.Analyzer = &PnLAnalyzer{}

func NewPnLAnalyzer() *PnLAnalyzer {
	return &PnLAnalyzer{pnls: make([]float64, 0)}
}

func (p *PnLAnalyzer) Analyze(_ int, _ int, _ string, trace *types.Trace) {
	if pnl, ok := TerminalPnL(trace); ok {
		p.pnls = append(p.pnls, pnl)
	}
}

func (p *PnLAnalyzer) DataSet() types.DataSet {
	out := make([]float64, len(p.pnls))
	copy(out, p.pnls)
	return out
}

func (p *PnLAnalyzer) Reset() {
	p.pnls = make([]float64, 0)
}

// TerminalPnL reads the hedge P&L reported at maturity, false if the trace never got there
func TerminalPnL(trace *types.Trace) (float64, bool) {
	if trace.Len() == 0 {
		return 0, false
	}
	pnl, ok := trace.Info(trace.Len() - 1)[InfoHedgePnL]
	return pnl, ok
}

// ActionAnalyzer counts how often each hedge action was taken
type ActionAnalyzer struct {
	counts map[string]int
}

var _ types.Analyzer = &ActionAnalyzer{}

func NewActionAnalyzer() *ActionAnalyzer {
	return &ActionAnalyzer{counts: make(map[string]int)}
}

func (a *ActionAnalyzer) Analyze(_ int, _ int, _ string, trace *types.Trace) {
	for i := 0; i < trace.Len(); i++ {
		_, action, _, _ := trace.Get(i)
		a.counts[action.Hash()] += 1
	}
}

func (a *ActionAnalyzer) DataSet() types.DataSet {
	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

func (a *ActionAnalyzer) Reset() {
	a.counts = make(map[string]int)
}

// Summary statistics of a sample of episode outcomes
type Summary struct {
	Episodes int     `json:"episodes"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Q05      float64 `json:"q05"`
	Median   float64 `json:"median"`
	Q95      float64 `json:"q95"`
	Max      float64 `json:"max"`
}

// Summarize computes the summary of values, the zero Summary for an empty sample
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return Summary{
		Episodes: len(sorted),
		Mean:     mean,
		StdDev:   std,
		Min:      floats.Min(sorted),
		Q05:      stat.Quantile(0.05, stat.Empirical, sorted, nil),
		Median:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q95:      stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:      floats.Max(sorted),
	}
}

// MovingAverage of values over a trailing window
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
			out[i] = sum / float64(window)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// RewardPlotComparator plots the moving average of the episode rewards of each experiment
func RewardPlotComparator(plotPath string, window int) types.Comparator {
	return func(run int, names []string, ds []types.DataSet) error {
		if err := os.MkdirAll(plotPath, os.ModePerm); err != nil {
			return err
		}
		p := plot.New()
		p.Title.Text = "Hedging reward"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = fmt.Sprintf("Reward (moving average, %d episodes)", window)
		for i := 0; i < len(names); i++ {
			rewards, ok := ds[i].([]float64)
			if !ok || len(rewards) == 0 {
				continue
			}
			avg := MovingAverage(rewards, window)
			points := make(plotter.XYs, len(avg))
			for j, v := range avg {
				points[j] = plotter.XY{
					X: float64(j),
					Y: v,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
		}
		return p.Save(8*vg.Inch, 6*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_rewards.png"))
	}
}

// PnLSummaryComparator logs the hedge P&L statistics of each experiment and stores them as JSON
func PnLSummaryComparator(savePath string, log zerolog.Logger) types.Comparator {
	return func(run int, names []string, ds []types.DataSet) error {
		summaries := make(map[string]Summary)
		for i, name := range names {
			pnls, ok := ds[i].([]float64)
			if !ok {
				continue
			}
			s := Summarize(pnls)
			summaries[name] = s
			log.Info().
				Int("run", run).
				Str("experiment", name).
				Int("episodes", s.Episodes).
				Float64("pnl_mean", s.Mean).
				Float64("pnl_std", s.StdDev).
				Float64("pnl_q05", s.Q05).
				Float64("pnl_q95", s.Q95).
				Msg("hedge P&L summary")
		}
		return util.WriteJSON(path.Join(savePath, strconv.Itoa(run)+"_pnl_summary.json"), summaries)
	}
}

// ActionCountComparator stores how often each experiment took each action
func ActionCountComparator(savePath string) types.Comparator {
	return func(run int, names []string, ds []types.DataSet) error {
		data := make(map[string]map[string]int)
		for i, name := range names {
			if counts, ok := ds[i].(map[string]int); ok {
				data[name] = counts
			}
		}
		return util.WriteJSON(path.Join(savePath, strconv.Itoa(run)+"_actions.json"), data)
	}
}
