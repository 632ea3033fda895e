package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripple-ui/ripple/pkg/el"
	"github.com/ripple-ui/ripple/pkg/oplog"
	"github.com/ripple-ui/ripple/pkg/vdom"
)

func benchCmd() *cobra.Command {
	var (
		rows   int
		rounds int
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the reconciler over an op-log host",
		Long: `Patch a keyed list through repeated shuffles and report how
many host operations and frame bytes each round produces.

Examples:
  ripple bench
  ripple bench --rows=10000 --rounds=50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(rows, rounds, seed)
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 1000, "Number of keyed rows")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 100, "Number of shuffle rounds")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Shuffle seed")

	return cmd
}

func runBench(rows, rounds int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	keys := make([]string, rows)
	for i := range keys {
		keys[i] = fmt.Sprintf("row-%d", i)
	}

	list := func(keys []string) *vdom.VNode {
		return el.Ul(el.Map(keys, func(k string) *vdom.VNode {
			return el.Li(el.Key(k), k)
		}))
	}

	rec := oplog.NewRecorder()
	p := vdom.New(rec, vdom.Modules{})

	old := list(keys)
	rec.MountRoot(p.Patch(nil, old))
	mountFrame := rec.Flush()
	fmt.Printf("mount: %d rows, %d ops, %d bytes\n",
		rows, len(mountFrame.Ops), len(oplog.EncodeFrame(mountFrame)))

	var totalOps, totalBytes int
	start := time.Now()

	for i := 0; i < rounds; i++ {
		rng.Shuffle(len(keys), func(a, b int) {
			keys[a], keys[b] = keys[b], keys[a]
		})
		next := list(keys)
		p.Patch(old, next)
		old = next

		frame := rec.Flush()
		if frame == nil {
			continue
		}
		totalOps += len(frame.Ops)
		totalBytes += len(oplog.EncodeFrame(frame))
	}
	elapsed := time.Since(start)

	fmt.Printf("rounds:  %d shuffles of %d rows in %s (%.1f rounds/s)\n",
		rounds, rows, elapsed.Round(time.Millisecond),
		float64(rounds)/elapsed.Seconds())
	fmt.Printf("traffic: %d ops (%.1f/round), %d bytes (%.1f/round)\n",
		totalOps, float64(totalOps)/float64(rounds),
		totalBytes, float64(totalBytes)/float64(rounds))
	return nil
}
