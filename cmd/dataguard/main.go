// Command dataguard validates tabular data files against a declarative rule
// catalog described in a TOML configuration file, producing a pass/fail
// report per table. Grounded on the teacher ETL's cmd/etl/main.go: flag
// parsing, config load-then-validate-then-run sequencing, verbose-gated
// logging, and metrics backend selection all follow the same shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	rdebug "runtime/debug"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GrGLeo/dataguard/internal/compiler"
	"github.com/GrGLeo/dataguard/internal/config"
	"github.com/GrGLeo/dataguard/internal/engine"
	"github.com/GrGLeo/dataguard/internal/metrics"
	"github.com/GrGLeo/dataguard/internal/metrics/datadog"
	"github.com/GrGLeo/dataguard/internal/metrics/prompush"
	"github.com/GrGLeo/dataguard/internal/report"
)

// Exit codes, per spec.md §6.
const (
	exitPass  = 0
	exitFail  = 1
	exitIOErr = 2
	exitUsage = 3
)

func main() {
	var (
		cfgPath           string
		outputMode        string
		outputPath        string
		brief             bool
		debug             bool
		watch             bool
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
	)

	flag.StringVar(&cfgPath, "config", "", "table configuration TOML path (required)")
	flag.StringVar(&outputMode, "output", "stdout", "report output mode: stdout or json")
	flag.StringVar(&outputPath, "path", "", "destination file for --output json (defaults to stdout if empty)")
	flag.BoolVar(&brief, "brief", false, "print only PASS/FAIL per table")
	flag.BoolVar(&debug, "debug", false, "print stack traces and verbose diagnostics on error")
	flag.BoolVar(&watch, "watch", false, "re-run validation whenever the config file changes")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (e.g. pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddrFlg, "datadog-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.Parse()

	if cfgPath == "" {
		fmt.Fprintln(os.Stderr, "dataguard: --config is required")
		os.Exit(exitUsage)
	}
	if outputMode != "stdout" && outputMode != "json" {
		fmt.Fprintf(os.Stderr, "dataguard: --output must be \"stdout\" or \"json\", got %q\n", outputMode)
		os.Exit(exitUsage)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, datadogAddrFlg)

	opts := runOptions{outputMode: outputMode, outputPath: outputPath, brief: brief, debug: debug}

	code := runOnce(cfgPath, opts)
	if !watch {
		os.Exit(code)
	}

	if err := watchAndRerun(cfgPath, opts); err != nil {
		fatalf(debug, "watch: %v", err)
	}
}

type runOptions struct {
	outputMode string
	outputPath string
	brief      bool
	debug      bool
}

// runOnce loads the config, compiles and validates every table, prints the
// reports, and returns the exit code spec.md §6 mandates.
func runOnce(cfgPath string, opts runOptions) int {
	doc, err := config.Load(cfgPath)
	if err != nil {
		fatalError(opts.debug, "load config: %v", err)
		return exitIOErr
	}

	issues := config.ValidateDocument(*doc)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		return exitIOErr
	}

	specs, err := config.BuildTableSpecs(doc)
	if err != nil {
		fatalError(opts.debug, "build table specs: %v", err)
		return exitIOErr
	}

	ctx := context.Background()
	allPassed := true
	for _, spec := range specs {
		start := time.Now()

		plan, err := compiler.Compile(ctx, spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dataguard: table %q: compile error: %v\n", spec.Name, err)
			return exitIOErr
		}

		var eng engine.Engine
		rep, err := eng.Validate(ctx, plan, spec.Source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dataguard: table %q: validation error: %v\n", spec.Name, err)
			return exitIOErr
		}

		if !rep.Passed {
			allPassed = false
		}
		printReport(rep, opts)
		if opts.debug {
			log.Printf("table %q validated in %s", spec.Name, time.Since(start).Truncate(time.Millisecond))
		}
	}

	if !allPassed {
		return exitFail
	}
	return exitPass
}

func printReport(rep *report.Report, opts runOptions) {
	if opts.brief {
		status := "PASS"
		if !rep.Passed {
			status = "FAIL"
		}
		fmt.Printf("%s: %s\n", rep.Table, status)
		return
	}

	if opts.outputMode == "json" {
		b, err := rep.ToJSON()
		if err != nil {
			fatalf(opts.debug, "encode report: %v", err)
		}
		if opts.outputPath == "" {
			fmt.Println(string(b))
			return
		}
		if err := os.WriteFile(opts.outputPath, b, 0o644); err != nil {
			fatalf(opts.debug, "write report: %v", err)
		}
		return
	}

	printHuman(rep)
}

func printHuman(rep *report.Report) {
	status := "PASS"
	if !rep.Passed {
		status = "FAIL"
	}
	fmt.Printf("table %s: %s (%d rows)\n", rep.Table, status, rep.TotalRows)
	for _, col := range rep.Columns {
		for _, r := range col.Rules {
			mark := "ok"
			if !r.Passed {
				mark = "VIOLATION"
			}
			fmt.Printf("  %-20s %-20s violations=%-8d percent=%6.3f%% threshold=%.3f %s\n",
				col.Name, r.Name, r.Violations, r.Percent, r.Threshold, mark)
		}
	}
	for _, rel := range rep.Relations {
		mark := "ok"
		if !rel.Passed {
			mark = "VIOLATION"
		}
		fmt.Printf("  %-41s violations=%-8d percent=%6.3f%% threshold=%.3f %s\n",
			rel.Name, rel.Violations, rel.Percent, rel.Threshold, mark)
	}
}

// watchAndRerun re-runs runOnce whenever cfgPath changes, per --watch
// (spec.md §6). It blocks until the watcher errors or the process is
// signaled; no persisted state survives between runs (spec.md §6,
// "Persisted state: None").
func watchAndRerun(cfgPath string, opts runOptions) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(cfgPath); err != nil {
		return fmt.Errorf("watch %s: %w", cfgPath, err)
	}

	log.Printf("watching %s for changes (ctrl-c to stop)", cfgPath)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Printf("config changed, re-running validation")
			runOnce(cfgPath, opts)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func setupMetrics(backendFlg, gatewayFlg, datadogAddrFlg string) {
	backendName := backendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := gatewayFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("dataguard", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		metrics.SetBackend(b)
	case "datadog":
		addr := datadogAddrFlg
		if addr == "" {
			addr = os.Getenv("DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "dataguard."})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		metrics.SetBackend(b)
	case "", "none":
		// metrics disabled; nop backend remains
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(debug bool, format string, a ...any) {
	fatalError(debug, format, a...)
	os.Exit(exitIOErr)
}

func fatalError(debug bool, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if debug {
		fmt.Fprintf(os.Stderr, "dataguard: %s\n%s", msg, rdebug.Stack())
		return
	}
	fmt.Fprintf(os.Stderr, "dataguard: %s\n", msg)
}
