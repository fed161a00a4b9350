package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/odyssey-erp/moneyreport/cmd/reportctl/cli"
)

const usage = `usage: reportctl <command> [flags]

commands:
  trigger <job> [reportID]  enqueue nextstep:refresh, nextstep:sweep, request:draft_cleanup or idempotency:cleanup
  queue                     print default queue statistics
  explain                   read a snapshot JSON document on stdin and print the computed affordances
`

func main() {
	redisAddr := flag.String("redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*redisAddr, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(redisAddr string, args []string) error {
	switch args[0] {
	case "explain":
		return cli.Explain(os.Stdin, os.Stdout)
	case "trigger", "queue":
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	jobsCLI := cli.NewJobsCLI(redisAddr)
	defer func() { _ = jobsCLI.Close() }()

	if args[0] == "queue" {
		stats, err := jobsCLI.InspectQueue()
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(stats)
	}

	if len(args) < 2 {
		return fmt.Errorf("trigger: job name required")
	}
	arg := ""
	if len(args) > 2 {
		arg = args[2]
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	info, err := jobsCLI.Trigger(ctx, args[1], arg)
	if err != nil {
		return err
	}
	fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
