package main

import (
	"crypto/md5"
	"flag"
	"fmt"
	"hash"
	"math"
	"math/rand"
	"net"
	"os"
	"text/tabwriter"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gobwas/avl"

	"github.com/gobwas/chash"
	"github.com/gobwas/chash/dot"
)

func main() {
	var (
		n        int    // Number of objects.
		s        int    // Number of servers on the ring.
		seed     int64  // Random seed.
		hashFunc string // Optional hash function name.
		dotFile  string // Optional prefix of graph files.

		verbose bool
	)
	flag.IntVar(&n,
		"objects", 1e5,
		"number of objects to spread on ring",
	)
	flag.IntVar(&s,
		"servers", 10,
		"number of servers to place on ring",
	)
	flag.Int64Var(&seed,
		"seed", 0,
		"random seed (current time if zero)",
	)
	flag.StringVar(&hashFunc,
		"hash", "sha256",
		"hash function to be used (sha256, xxhash or md5)",
	)
	flag.StringVar(&dotFile,
		"dot", "",
		"prefix of graphviz files to dump ring structure after each phase",
	)
	flag.BoolVar(&verbose,
		"v", false,
		"be verbose",
	)
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	if err := run(logger, config{
		objects:  n,
		servers:  s,
		seed:     seed,
		hashFunc: hashFunc,
		dotFile:  dotFile,
	}); err != nil {
		level.Error(logger).Log("msg", "failed", "err", err)
		os.Exit(1)
	}
}

type config struct {
	objects  int
	servers  int
	seed     int64
	hashFunc string
	dotFile  string
}

func run(logger log.Logger, c config) error {
	if c.servers <= 0 {
		return fmt.Errorf("number of servers must be positive")
	}
	if c.seed == 0 {
		c.seed = rand.Int63()
	}
	rnd := rand.New(rand.NewSource(c.seed))
	level.Info(logger).Log("msg", "starting", "seed", c.seed, "hash", c.hashFunc)

	r := chash.Ring{
		Logger: log.With(logger, "component", "ring"),
	}
	switch c.hashFunc {
	case "", "sha256":
	case "xxhash":
		r.Hash = chash.XXHash
	case "md5":
		r.Hash = func() hash.Hash {
			return md5.New()
		}
	default:
		return fmt.Errorf("unexpected hash function: %q", c.hashFunc)
	}

	// Prepare servers to be put on the ring.
	servers := make(map[string]bool, c.servers+1)
	for len(servers) < c.servers {
		s := randomAddr(rnd)
		if servers[s] {
			level.Debug(logger).Log("msg", "server duplicated; repeat", "server", s)
			continue
		}
		servers[s] = true
		if err := r.AddNode(s); err != nil {
			return err
		}
	}
	if err := dump(c.dotFile, 0, &r); err != nil {
		return err
	}

	for i := 0; i < c.objects; i++ {
		key := fmt.Sprintf("%016x", rnd.Int63n(math.MaxInt64))
		if err := r.Set(key, i); err != nil {
			return err
		}
	}
	level.Info(logger).Log("msg", "objects are ready", "objects", r.Len())
	if err := dump(c.dotFile, 1, &r); err != nil {
		return err
	}
	printDistribution(&r)

	// Place one more server and see how many objects are relocated.
	prev := ownership(&r)
	var extra string
	for extra == "" || servers[extra] {
		extra = randomAddr(rnd)
	}
	if err := r.AddNode(extra); err != nil {
		return err
	}
	if err := dump(c.dotFile, 2, &r); err != nil {
		return err
	}
	var moved int
	for key, owner := range ownership(&r) {
		if owner != prev[key] {
			moved++
		}
	}
	level.Info(logger).Log(
		"msg", "server added",
		"server", extra,
		"moved", moved,
		"moved_pct", fmt.Sprintf("%.2f", float64(moved)/float64(max(r.Len(), 1))*100),
		"expected_pct", fmt.Sprintf("%.2f", 100/float64(c.servers+1)),
	)

	// Remove it and check that ring returns to the previous state.
	if err := r.RemoveNode(extra); err != nil {
		return err
	}
	if err := dump(c.dotFile, 3, &r); err != nil {
		return err
	}
	next := ownership(&r)
	for key, owner := range prev {
		if next[key] != owner {
			return fmt.Errorf(
				"object %q is not restored: %s; want %s",
				key, next[key], owner,
			)
		}
	}
	if err := r.Verify(); err != nil {
		return err
	}
	level.Info(logger).Log("msg", "server removed; ownership restored", "server", extra)

	fmt.Fprintln(os.Stderr, "OK")

	return nil
}

func printDistribution(r *chash.Ring) {
	var (
		total = r.Len()
		t     avl.Tree
	)
	for i, n := range r.Snapshot() {
		t, _ = t.Insert(share{
			node:  n.Node,
			index: i,
			keys:  len(n.Keys),
		})
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "server\tlabel\tobjects\tshare\n")
	t.InOrder(func(x avl.Item) bool {
		s := x.(share)
		fmt.Fprintf(tw,
			"%s\t%s\t%d\t%.2f%%\n",
			s.node.Name, s.node.Label(), s.keys,
			float64(s.keys)/float64(max(total, 1))*100,
		)
		return true
	})
	tw.Flush()
}

// share is a number of objects owned by a server.
// Shares are ordered from the biggest to the smallest one.
type share struct {
	node  chash.Node
	index int
	keys  int
}

func (s share) Compare(x avl.Item) int {
	o := x.(share)
	if s.keys != o.keys {
		return o.keys - s.keys
	}
	return s.index - o.index
}

func ownership(r *chash.Ring) map[string]string {
	ret := make(map[string]string, r.Len())
	for _, n := range r.Snapshot() {
		for _, k := range n.Keys {
			ret[k.Key] = n.Name
		}
	}
	return ret
}

func dump(prefix string, phase int, r *chash.Ring) error {
	if prefix == "" {
		return nil
	}
	f, err := os.Create(fmt.Sprintf("%s%d.dot", prefix, phase))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := dot.Write(f, "chash", r.Snapshot()); err != nil {
		return err
	}
	return f.Close()
}

func randomAddr(rnd *rand.Rand) string {
	var b [4]byte
	rnd.Read(b[:])
	return net.IPv4(b[0], b[1], b[2], b[3]).String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
