// Command asvplan-sim drives an Executive end to end against a simulated,
// perfectly-tracking controller, printing per-cycle stats as they are
// published. It is a harness for exercising the planning core, not a
// production launcher: the transport, map-loading and real controller
// layers are all out of scope here.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/executive"
	"github.com/CCOMJHC/alex-path-planner/planner"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

func main() {
	app := &cli.App{
		Name:  "asvplan-sim",
		Usage: "run the ASV planning core against a simulated controller",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "ribbon",
				Usage: "x1,y1,x2,y2 -- repeatable",
			},
			&cli.Float64Flag{
				Name:  "line-width",
				Value: 10,
				Usage: "coverage width applied to every ribbon",
			},
			&cli.StringFlag{
				Name:  "planner",
				Value: "AStar",
				Usage: "PotentialField, AStar, or BitStar",
			},
			&cli.Float64Flag{
				Name:  "horizon",
				Value: 5,
				Usage: "planning time horizon in seconds",
			},
			&cli.IntFlag{
				Name:  "max-seconds",
				Value: 120,
				Usage: "stop the simulation after this many wall-clock seconds even if coverage is incomplete",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	whichPlanner, ok := parseWhichPlanner(c.String("planner"))
	if !ok {
		return fmt.Errorf("unknown planner %q", c.String("planner"))
	}
	cfg.WhichPlanner = whichPlanner
	cfg.TimeHorizon = c.Float64("horizon")
	cfg.LineWidth = c.Float64("line-width")

	pub := newTablePublisher()
	ctrl := newSimController()
	clk := clock.New()
	exec := executive.New(nil, clk, ctrl, pub, nil)

	if err := exec.SetConfiguration(configToMap(cfg)); err != nil {
		return err
	}

	ribbons := c.StringSlice("ribbon")
	if len(ribbons) == 0 {
		exec.AddRibbon(0, 0, 100, 0)
	}
	for _, spec := range ribbons {
		x1, y1, x2, y2, err := parseRibbon(spec)
		if err != nil {
			return err
		}
		exec.AddRibbon(x1, y1, x2, y2)
	}

	if err := exec.StartPlanner(); err != nil {
		return err
	}

	deadline := time.Now().Add(time.Duration(c.Int("max-seconds")) * time.Second)
	for exec.State() != executive.Inactive && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	exec.Terminate()

	pub.render()
	return nil
}

func parseWhichPlanner(s string) (config.WhichPlanner, bool) {
	switch s {
	case "PotentialField":
		return config.PotentialField, true
	case "AStar":
		return config.AStar, true
	case "BitStar":
		return config.BitStar, true
	default:
		return 0, false
	}
}

func parseRibbon(spec string) (x1, y1, x2, y2 float64, err error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("ribbon %q: expected x1,y1,x2,y2", spec)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, perr := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if perr != nil {
			return 0, 0, 0, 0, fmt.Errorf("ribbon %q: %w", spec, perr)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

// configToMap round-trips cfg through its JSON tags via the same decode
// path SetConfiguration expects from a real transport layer.
func configToMap(cfg config.Config) map[string]interface{} {
	return map[string]interface{}{
		"whichPlanner": cfg.WhichPlanner.String(),
		"timeHorizon":  cfg.TimeHorizon,
		"timeMinimum":  cfg.TimeMinimum,
		"lineWidth":    cfg.LineWidth,
	}
}

// simController tracks a plan perfectly: it reports the plan's own sampled
// state one horizon ahead of the plan's start, so the Executive always sees
// its plans as achieved. A real controller would instead report the
// vehicle's actual, possibly-deviated state.
type simController struct{}

func newSimController() *simController { return &simController{} }

func (c *simController) PublishPlan(plan dubins.Plan, ideal time.Duration) (dubins.State, error) {
	if plan.Empty() {
		return dubins.State{}, nil
	}
	t := plan.StartTime() + ideal.Seconds()
	if t > plan.EndTime() {
		t = plan.EndTime()
	}
	return plan.Sample(t)
}

// tablePublisher accumulates one row per cycle and renders a go-pretty
// table on completion. It implements executive.Publisher; DisplayTrajectory
// and DisplayRibbons are no-ops here since this harness has no visualiser.
type tablePublisher struct {
	t     table.Writer
	cycle int
}

var _ executive.Publisher = (*tablePublisher)(nil)

func newTablePublisher() *tablePublisher {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"cycle", "generated", "expanded", "finalCost", "collisionPenalty", "achievable"})
	return &tablePublisher{t: tw}
}

func (p *tablePublisher) render() {
	fmt.Println(p.t.Render())
}

func (p *tablePublisher) PublishStats(stats planner.Stats, collisionPenalty float64, lastPlanAchievable bool) {
	p.cycle++
	p.t.AppendRow(table.Row{p.cycle, stats.Generated, stats.Expanded, stats.FinalCost, collisionPenalty, lastPlanAchievable})
}

func (p *tablePublisher) PublishTaskLevelStats(wallClock time.Duration, cumulativeCollisionPenalty, totalPenalty, uncoveredLength float64) {
	fmt.Printf("wall clock %s, cumulative collision penalty %.2f, total penalty %.2f, uncovered length %.2f\n",
		wallClock, cumulativeCollisionPenalty, totalPenalty, uncoveredLength)
}

func (p *tablePublisher) DisplayTrajectory(samples []dubins.State, clearPrevious, dangerous bool) {}

func (p *tablePublisher) DisplayRibbons(ribbons []ribbon.Ribbon) {}

func (p *tablePublisher) AllDone() {
	fmt.Println("coverage complete")
}
