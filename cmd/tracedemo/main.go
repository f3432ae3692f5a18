// Command tracedemo exercises the trace pipeline: it registers the console
// sink, the async text sink and optionally the JSON sink on one hub, then
// emits a stream of scalar, array and interval traces until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/oklog/run"
	"github.com/oklog/ulid/v2"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/traceline/traceline"
	"github.com/traceline/traceline/core"
	"github.com/traceline/traceline/selflog"
	"github.com/traceline/traceline/sinks"
)

func main() {
	err := exec(context.Background(), os.Stdout, os.Stderr, os.Args[1:])
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var flags struct {
		json     bool
		usec     bool
		queue    int
		interval time.Duration
		count    int
		debug    bool
	}

	fs := ff.NewFlagSet("tracedemo")
	{
		fs.AddFlag(ff.FlagConfig{ShortName: 'j', LongName: "json", Value: ffval.NewValue(&flags.json), Usage: "also render each trace as JSON", NoDefault: true})
		fs.AddFlag(ff.FlagConfig{ShortName: 'u', LongName: "usec", Value: ffval.NewValue(&flags.usec), Usage: "pin time headers to microseconds", NoDefault: true})
		fs.AddFlag(ff.FlagConfig{ShortName: 'q', LongName: "queue", Value: ffval.NewValueDefault(&flags.queue, 30), Usage: "async sink mailbox capacity"})
		fs.AddFlag(ff.FlagConfig{ShortName: 'i', LongName: "interval", Value: ffval.NewValueDefault(&flags.interval, 500*time.Millisecond), Usage: "delay between emitted traces"})
		fs.AddFlag(ff.FlagConfig{ShortName: 'n', LongName: "count", Value: ffval.NewValueDefault(&flags.count, 0), Usage: "number of traces to emit, 0 for unlimited"})
		fs.AddFlag(ff.FlagConfig{ShortName: 'd', LongName: "debug", Value: ffval.NewValue(&flags.debug), Usage: "log pipeline diagnostics to stderr", NoDefault: true})
	}

	if err := ff.Parse(fs, args); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			err = nil
		}
		return err
	}

	if flags.debug {
		selflog.Enable(stderr)
		defer selflog.Disable()
	}

	session := ulid.Make().String()
	fmt.Fprintf(stdout, "session %s\n", session)

	consoleOpts := []sinks.PrintOption{sinks.WithPrintWriter(stdout)}
	taskOpts := []sinks.TraceTaskOption{
		sinks.WithTaskWriter(stdout),
		sinks.WithTaskQueueLength(flags.queue),
	}
	if flags.usec {
		consoleOpts = append(consoleOpts, sinks.WithPrintMicroseconds())
		taskOpts = append(taskOpts, sinks.WithTaskMicroseconds())
	}

	async := sinks.NewTraceTask(taskOpts...)
	defer async.Stop()

	hub := traceline.New(traceline.WithSinks(
		sinks.NewPrintSink(consoleOpts...),
		async,
	))

	var jsonTask *sinks.JSONTraceTask
	if flags.json {
		jsonTask = sinks.NewJSONTraceTask(taskOpts...)
		defer jsonTask.Stop()
		hub.Add(jsonTask)
	}

	var g run.Group
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return emit(ctx, hub, jsonTask, stdout, flags.interval, flags.count)
		}, func(error) {
			cancel()
		})
	}
	{
		g.Add(run.SignalHandler(ctx, os.Interrupt))
	}
	return g.Run()
}

func emit(ctx context.Context, hub *traceline.TraceLog, jsonTask *sinks.JSONTraceTask, stdout io.Writer, interval time.Duration, count int) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	hub.Log("tracedemo starting")
	for i := 0; count == 0 || i < count; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}

		switch i % 4 {
		case 0:
			hub.Info("heartbeat", int32(i))
		case 1:
			hub.THex("samples", []uint16{uint16(rand.Intn(1 << 16)), uint16(rand.Intn(1 << 16))})
		case 2:
			hub.TDec("deltas", []int16{int16(rand.Intn(200) - 100), int16(rand.Intn(200) - 100)})
		case 3:
			hub.StartTime()
			time.Sleep(time.Duration(rand.Intn(1000)) * time.Microsecond)
			hub.StopTime("work", 1)
		}

		if jsonTask != nil {
			jsonTask.WaitIdle(time.Second)
			fmt.Fprintf(stdout, "json: %s\n", jsonTask.Answer())
		}
	}

	hub.Trace("", core.IgnoreCode, core.NoneLevel, false)
	hub.Log("tracedemo done")
	return nil
}
