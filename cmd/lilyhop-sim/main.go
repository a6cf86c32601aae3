// Command lilyhop-sim plays a seeded run headlessly with the built-in
// greedy pilot or a JavaScript autopilot, and prints a summary.
//
//	lilyhop-sim -seed demo -ticks 36000
//	lilyhop-sim -script pilot.js -name frog -submit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/MJE43/lilyhop/internal/client"
	"github.com/MJE43/lilyhop/internal/config"
	"github.com/MJE43/lilyhop/internal/game"
	"github.com/MJE43/lilyhop/internal/highscore"
	"github.com/MJE43/lilyhop/internal/scripting"
	"github.com/MJE43/lilyhop/internal/tasks"
)

type options struct {
	seed        string
	ticks       uint64
	script      string
	tuning      string
	writeTuning string
	name        string
	submit      bool
	server      string
	events      bool
	noHighScore bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	var opts options
	fs := flag.NewFlagSet("lilyhop-sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.seed, "seed", "", "field seed (random when empty)")
	fs.Uint64Var(&opts.ticks, "ticks", 60*60*10, "maximum frames to simulate")
	fs.StringVar(&opts.script, "script", "", "JavaScript autopilot defining decide()")
	fs.StringVar(&opts.tuning, "tuning", cfg.TuningFile, "INI tuning file")
	fs.StringVar(&opts.writeTuning, "write-tuning", "", "write the effective tuning to this file and exit")
	fs.StringVar(&opts.name, "name", "", "player name for submission")
	fs.BoolVar(&opts.submit, "submit", false, "submit the final score to the leaderboard")
	fs.StringVar(&opts.server, "server", cfg.ServerURL, "leaderboard server URL")
	fs.BoolVar(&opts.events, "events", false, "print every landing and biome change")
	fs.BoolVar(&opts.noHighScore, "no-highscore", false, "do not read or write the local high score")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := log.New(stderr, "[SIM] ", log.LstdFlags)

	params, err := config.LoadTuning(opts.tuning)
	if err != nil {
		logger.Printf("tuning_failed error=%v", err)
		return 1
	}
	if opts.writeTuning != "" {
		if err := config.SaveTuning(opts.writeTuning, params); err != nil {
			logger.Printf("write_tuning_failed error=%v", err)
			return 1
		}
		fmt.Fprintf(stdout, "wrote %s\n", opts.writeTuning)
		return 0
	}
	if opts.submit && opts.name == "" {
		logger.Printf("submit_rejected reason=%q", "-name is required with -submit")
		return 2
	}
	if opts.seed == "" {
		opts.seed = uuid.NewString()
	}

	pilot, err := newPilot(opts.script, params)
	if err != nil {
		logger.Printf("pilot_failed error=%v", err)
		return 1
	}

	var slot *highscore.KeyringStore
	best := 0
	if !opts.noHighScore {
		slot = highscore.NewKeyringStore(cfg.KeyringService, cfg.KeyringAccount, cfg.HighScoreFallback)
		if best, err = slot.Load(); err != nil {
			logger.Printf("highscore_load_failed error=%v", err)
			best = 0
		}
	}

	sim := game.NewSim(params, opts.seed)
	sim.SetHighScore(best)

	var onEvent func(game.Event)
	if opts.events {
		onEvent = func(ev game.Event) { printEvent(stdout, ev) }
	}

	start := time.Now()
	res, runErr := scripting.Run(ctx, sim, pilot, opts.ticks, onEvent)
	elapsed := time.Since(start)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Printf("run_failed tick=%d error=%v", res.Ticks, runErr)
	}

	printSummary(stdout, opts.seed, res, elapsed)
	if sp, ok := pilot.(*scripting.ScriptPilot); ok {
		for _, entry := range sp.Logs() {
			fmt.Fprintf(stdout, "  script: %s\n", entry.Message)
		}
	}

	queue := tasks.New(4, log.New(stderr, "[TASKS] ", log.LstdFlags))
	if slot != nil {
		queue.Submit(saveHighScoreJob(slot, res.Score))
	}
	var sub *submission
	if opts.submit {
		sub = &submission{}
		queue.Submit(sub.job(cfg, opts, res.Score, stdout))
	}

	// The process must not exit before the jobs finish.
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := queue.Close(closeCtx); err != nil {
		logger.Printf("task_queue_close_failed error=%v", err)
		return 1
	}

	if sub != nil && sub.err != nil {
		color.New(color.FgRed).Fprintf(stdout, "submit failed: %v\n", sub.err)
		return 1
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return 1
	}
	return 0
}

func newPilot(path string, params game.Params) (scripting.Pilot, error) {
	if path == "" {
		return scripting.NewGreedyPilot(params), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return scripting.NewScriptPilot(string(src), params)
}

func saveHighScoreJob(slot *highscore.KeyringStore, score int) tasks.Job {
	return tasks.Job{
		Name:    "save_highscore",
		Timeout: 5 * time.Second,
		Run: func(ctx context.Context) error {
			_, err := slot.Record(score)
			return err
		},
	}
}

// submission carries the outcome of the submit job back to run. err is
// read only after the queue has been closed.
type submission struct {
	err error
}

func (s *submission) job(cfg config.Config, opts options, score int, stdout io.Writer) tasks.Job {
	c := client.NewClient(client.Config{
		BaseURL:     opts.server,
		SubmitToken: cfg.SubmitToken,
		UserAgent:   "lilyhop-sim",
	})
	return tasks.Job{
		Name:    "submit_score",
		Timeout: 30 * time.Second,
		Run: func(ctx context.Context) error {
			entry, err := c.SubmitScore(ctx, opts.name, int64(score))
			if err != nil {
				s.err = err
				return err
			}
			color.New(color.FgGreen).Fprintf(stdout, "submitted %s: %s (id %s)\n",
				entry.Name, humanize.Comma(entry.Score), entry.ID)
			return nil
		},
	}
}

func printEvent(w io.Writer, ev game.Event) {
	switch ev.Kind {
	case game.EventLanded:
		fmt.Fprintf(w, "%6d  landed on pad %d  score %d\n", ev.Tick, ev.PadID, ev.Score)
	case game.EventBiomeChanged:
		color.New(color.FgCyan).Fprintf(w, "%6d  biome %s -> %s\n", ev.Tick, ev.From, ev.To)
	case game.EventGameOver:
		color.New(color.FgRed).Fprintf(w, "%6d  game over at %d\n", ev.Tick, ev.Score)
	case game.EventNewHighScore:
		color.New(color.FgYellow).Fprintf(w, "%6d  new high score %d\n", ev.Tick, ev.Score)
	}
}

func printSummary(w io.Writer, seed string, res scripting.Result, elapsed time.Duration) {
	line := func(label, value string, c *color.Color) {
		fmt.Fprintf(w, "%-12s", label)
		c.Fprintln(w, value)
	}
	white := color.New(color.FgWhite)

	color.New(color.FgYellow).Fprintln(w, "*** Lilyhop run ***")
	line("Seed:", fmt.Sprintf("%s (%s stream bytes)", seed, humanize.Comma(int64(res.Draws))), white)
	line("Frames:", fmt.Sprintf("%s (%s sim time, %s wall)",
		humanize.Comma(int64(res.Ticks)),
		time.Duration(res.Ticks)*time.Second/60, elapsed.Round(time.Millisecond)), white)
	line("Jumps:", humanize.Comma(int64(res.Jumps)), white)

	scoreColor := color.New(color.FgGreen)
	if res.GameOver {
		scoreColor = color.New(color.FgRed)
	}
	line("Score:", humanize.Comma(int64(res.Score)), scoreColor)

	best := humanize.Comma(int64(res.HighScore))
	if res.NewHighScore {
		best += " (new)"
	}
	line("Best:", best, color.New(color.FgYellow))
	line("Biome:", res.Biome.String(), color.New(color.FgCyan))

	status := "ticks exhausted"
	switch {
	case res.GameOver:
		status = "game over"
	case res.Stopped:
		status = "stopped by script"
	}
	line("Ended:", status, white)
}
