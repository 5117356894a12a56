// Command gophreadsdemo boots a kernel.Kernel under either scheduler and
// runs a short, deterministic scenario against it: a handful of worker
// threads contending over a donation-capable lock, niceness set under
// MLFQS, and a couple of timed sleeps, logging scheduling decisions as it
// goes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/NiHighlism/gophreads/kernel"
	"github.com/NiHighlism/gophreads/kernel/logadapter"
)

func main() {
	scheduler := flag.String("o", "rr", `scheduler to boot: "rr" (priority round-robin with donation) or "mlfqs"`)
	logLevel := flag.String("log", "info", "minimum log level: debug, info, warn, error")
	workers := flag.Int("workers", 4, "number of contending worker threads to spawn")
	flag.Parse()

	level, err := parseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	z := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	logger := logadapter.New(z, level, nil)

	mlfqs := *scheduler == "mlfqs"
	if !mlfqs && *scheduler != "rr" {
		fmt.Fprintf(os.Stderr, "unknown scheduler %q\n", *scheduler)
		os.Exit(2)
	}

	k := kernel.New(kernel.WithMLFQS(mlfqs), kernel.WithLogger(logger))
	driver := kernel.NewTimerDriver(k, time.Millisecond)
	driver.Start()
	defer driver.Stop()

	lock := kernel.NewLock()
	ids := make([]int, 0, *workers)

	for i := 0; i < *workers; i++ {
		i := i
		priority := kernel.PriDefault - i*4
		t, err := k.Create(fmt.Sprintf("worker-%d", i), priority, func(self *kernel.Thread, _ any) {
			if mlfqs {
				_ = k.SetNice(i % 5)
			}
			lock.Acquire(k)
			k.Sleep(2)
			lock.Release(k)
		}, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "create worker:", err)
			os.Exit(1)
		}
		ids = append(ids, t.ID())
	}

	for _, id := range ids {
		if _, err := k.WaitChild(id); err != nil {
			fmt.Fprintln(os.Stderr, "wait worker:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("ticks observed: %d, load_avg*100: %d\n", k.TickCount(), k.GetLoadAvg())
}

func parseLevel(s string) (kernel.LogLevel, error) {
	switch s {
	case "debug":
		return kernel.LevelDebug, nil
	case "info":
		return kernel.LevelInfo, nil
	case "warn":
		return kernel.LevelWarn, nil
	case "error":
		return kernel.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
