package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dd0wney/cluso-graphir/pkg/algorithms"
	"github.com/dd0wney/cluso-graphir/pkg/config"
	"github.com/dd0wney/cluso-graphir/pkg/dump"
	"github.com/dd0wney/cluso-graphir/pkg/graphdef"
	"github.com/dd0wney/cluso-graphir/pkg/ir"
	"github.com/dd0wney/cluso-graphir/pkg/logging"
	"github.com/dd0wney/cluso-graphir/pkg/metrics"
	"github.com/dd0wney/cluso-graphir/pkg/parallel"
)

var errCyclic = errors.New("graph contains cycles")

// session carries what every command needs once configuration is loaded.
type session struct {
	cfg     config.Config
	logger  logging.Logger
	metrics *metrics.Registry
	sorter  *algorithms.Sorter
	start   time.Time
}

func newSession(cfgPath string, stderr io.Writer) (*session, error) {
	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(stderr, cfg.Level()).With(logging.Component("graphir"))
	reg := metrics.NewRegistry()

	opts := []algorithms.SorterOption{algorithms.WithLogger(logger), algorithms.WithMetrics(reg)}
	if cfg.DumpOnFailure {
		w := dump.NewWriter(cfg.DumpDir, dump.WithLogger(logger), dump.WithMetrics(reg))
		opts = append(opts, algorithms.WithDumpSink(w))
	}
	return &session{
		cfg:     cfg,
		logger:  logger,
		metrics: reg,
		sorter:  algorithms.NewSorter(opts...),
		start:   time.Now(),
	}, nil
}

func (s *session) loadGraph(path string) (*ir.Graph, error) {
	def, err := graphdef.Load(path)
	if err != nil {
		return nil, err
	}
	g, err := graphdef.Build(def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g.SetLogger(s.logger)
	g.SetObserver(s.metrics)
	s.logger.Debug("graph loaded", logging.Path(path), logging.Graph(g.Name()), logging.Count(g.NodeCount()))
	return g, nil
}

// sortFlags are the sort policy overrides shared by sort and view.
type sortFlags struct {
	strategy       string
	memoryPriority bool
	reverse        bool
	inputOrder     string
}

func (f *sortFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.strategy, "strategy", "", "sort strategy: bfs, dfs or rdfs (overrides config)")
	fs.BoolVar(&f.memoryPriority, "memory-priority", false, "order ready nodes by memory pressure")
	fs.BoolVar(&f.reverse, "reverse", false, "reverse DFS push order")
	fs.StringVar(&f.inputOrder, "input-order", "", "comma separated graph input order")
}

// apply copies the flags that were set on the command line into cfg.
func (f *sortFlags) apply(fs *flag.FlagSet, cfg *config.Config) (algorithms.Options, error) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "strategy":
			cfg.TopoSortingMode = f.strategy
		case "memory-priority":
			cfg.MemoryPriority = f.memoryPriority
		case "reverse":
			cfg.DFSReverse = f.reverse
		case "input-order":
			cfg.InputOrder = nil
			for _, name := range strings.Split(f.inputOrder, ",") {
				if name = strings.TrimSpace(name); name != "" {
					cfg.InputOrder = append(cfg.InputOrder, name)
				}
			}
		}
	})
	return algorithms.OptionsFromConfig(*cfg)
}

func graphArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one graph file, got %d arguments", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}

func runSort(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sort", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "configuration file")
	out := fs.String("o", "", "write the sorted graph as YAML to this file (- for stdout)")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics to this file")
	workers := fs.Int("workers", runtime.NumCPU(), "graphs sorted concurrently when several files are given")
	var sf sortFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("sort: expected at least one graph file")
	}

	s, err := newSession(*cfgPath, stderr)
	if err != nil {
		return err
	}
	opts, err := sf.apply(fs, &s.cfg)
	if err != nil {
		return err
	}
	defer s.writeMetrics(*metricsFile)

	if fs.NArg() > 1 {
		if *out != "" {
			return errors.New("sort: -o needs a single graph file")
		}
		return s.sortBatch(fs.Args(), opts, *workers, stdout)
	}

	g, err := s.loadGraph(fs.Arg(0))
	if err != nil {
		return err
	}

	if err := s.sorter.Sort(g, opts); err != nil {
		var cerr *algorithms.CycleError
		if errors.As(err, &cerr) {
			fmt.Fprintln(stdout, renderCycleError(cerr))
		}
		return err
	}

	for _, sg := range append([]*ir.Graph{g}, g.AllSubgraphs()...) {
		if err := algorithms.VerifyOrder(sg); err != nil {
			return err
		}
	}

	if *out == "-" {
		return writeDefinition(stdout, g)
	}
	fmt.Fprintln(stdout, titleStyle.Render(fmt.Sprintf("Sorted %s with %s", g.Name(), opts.Strategy)))
	fmt.Fprintln(stdout, renderOrder(g))
	for _, sg := range g.AllSubgraphs() {
		fmt.Fprintln(stdout, renderOrder(sg))
	}
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err := writeDefinition(f, g); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, renderSuccess("wrote "+*out))
	}
	return nil
}

func (s *session) writeMetrics(path string) {
	if path == "" {
		return
	}
	s.metrics.UpdateSystemMetrics(s.start)
	if err := prometheus.WriteToTextfile(path, s.metrics.GetPrometheusRegistry()); err != nil {
		s.logger.Warn("failed to write metrics", logging.Path(path), logging.Error(err))
	}
}

// sortBatch sorts several graph files concurrently and reports each one.
func (s *session) sortBatch(paths []string, opts algorithms.Options, workers int, stdout io.Writer) error {
	graphs := make([]*ir.Graph, len(paths))
	for i, path := range paths {
		g, err := s.loadGraph(path)
		if err != nil {
			return err
		}
		graphs[i] = g
	}

	results, err := parallel.Run(context.Background(), graphs, workers, s.logger, func(g *ir.Graph) error {
		return s.sorter.Sort(g, opts)
	})
	if err != nil {
		return err
	}
	for i, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stdout, "%s %s\n", errorStyle.Render("✗"), fmt.Sprintf("%s: %v", paths[i], r.Err))
			continue
		}
		fmt.Fprintf(stdout, "%s %s (%d nodes, %s)\n", successStyle.Render("✓"), paths[i], r.Graph.NodeCount(), r.Duration.Round(time.Microsecond))
	}
	return parallel.Errors(results)
}

func renderCycleError(cerr *algorithms.CycleError) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s: %d nodes could not be ordered", cerr.Graph, len(cerr.Unvisited))))
	b.WriteByte('\n')
	b.WriteString(strings.Join(cerr.Unvisited, ", "))
	for _, c := range cerr.Cycles {
		b.WriteString("\ncycle: ")
		b.WriteString(strings.Join(c, " -> "))
	}
	return boxStyle.Render(b.String())
}

func writeDefinition(w io.Writer, g *ir.Graph) error {
	data, err := graphdef.Marshal(graphdef.FromGraph(g))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func runCheck(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := graphArg(fs)
	if err != nil {
		return err
	}
	s, err := newSession(*cfgPath, stderr)
	if err != nil {
		return err
	}
	g, err := s.loadGraph(path)
	if err != nil {
		return err
	}

	cyclic := 0
	for _, sg := range append([]*ir.Graph{g}, g.AllSubgraphs()...) {
		report, ok := checkGraph(sg)
		if !ok {
			cyclic++
		}
		fmt.Fprintln(stdout, report)
	}
	if cyclic > 0 {
		return fmt.Errorf("%d of %d graphs: %w", cyclic, len(g.AllSubgraphs())+1, errCyclic)
	}
	fmt.Fprintln(stdout, renderSuccess("all graphs are acyclic"))
	return nil
}

// checkGraph reports cycles, strongly connected components and whether the
// current node list is already a valid order. ok is false when g is cyclic.
func checkGraph(g *ir.Graph) (string, bool) {
	var b strings.Builder
	b.WriteString(headerStyle.Render(g.Name()))
	b.WriteByte('\n')

	scc := algorithms.StronglyConnectedComponents(g)
	fmt.Fprintf(&b, "components: %d (largest %d, singletons %d)\n", len(scc.Components), len(scc.LargestSCC), scc.SingletonCount)
	fmt.Fprintf(&b, "condensation edges: %d\n", len(algorithms.Condensation(scc)))

	cycles := algorithms.DetectCycles(g)
	if len(cycles) == 0 {
		if v := algorithms.Violations(g); len(v) > 0 {
			fmt.Fprintf(&b, "acyclic; current order has %d violations, first %s", len(v), v[0])
		} else {
			b.WriteString("acyclic; current order is valid")
		}
		return boxStyle.Render(b.String()), true
	}

	stats := algorithms.AnalyzeCycles(cycles)
	fmt.Fprintf(&b, "cycles: %d (shortest %d, longest %d, self loops %d)", stats.TotalCycles, stats.ShortestCycle, stats.LongestCycle, stats.SelfLoops)
	for _, comp := range scc.Cyclic() {
		names := make([]string, len(comp))
		for i, n := range comp {
			names[i] = n.Name()
		}
		slices.Sort(names)
		b.WriteString("\n" + errorStyle.Render("cyclic component: ") + strings.Join(names, ", "))
	}
	return boxStyle.Render(b.String()), false
}

func runIsolate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("isolate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "configuration file")
	nodeName := fs.String("node", "", "node to remove (required)")
	graphName := fs.String("graph", "", "subgraph holding the node (default: the root graph)")
	ioMap := fs.String("io", "", "comma separated input index bypassing each output, -1 to drop")
	out := fs.String("o", "-", "write the edited graph as YAML to this file (- for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := graphArg(fs)
	if err != nil {
		return err
	}
	if *nodeName == "" {
		return errors.New("isolate: -node is required")
	}
	mapping, err := parseIOMap(*ioMap)
	if err != nil {
		return err
	}

	s, err := newSession(*cfgPath, stderr)
	if err != nil {
		return err
	}
	g, err := s.loadGraph(path)
	if err != nil {
		return err
	}

	target := g
	if *graphName != "" {
		if target = g.GetSubgraph(*graphName); target == nil {
			return fmt.Errorf("subgraph %s: %w", *graphName, ir.ErrNotFound)
		}
	}
	n := target.FindNode(*nodeName)
	if n == nil {
		return fmt.Errorf("node %s in %s: %w", *nodeName, target.Name(), ir.ErrNotFound)
	}
	if err := ir.IsolateNode(n, mapping); err != nil {
		return err
	}
	if err := ir.RemoveNodeWithoutRelink(target, n); err != nil {
		return err
	}
	s.logger.Info("node isolated", logging.Graph(target.Name()), logging.Node(*nodeName))

	if *out == "-" {
		return writeDefinition(stdout, g)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := writeDefinition(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseIOMap(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	mapping := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("io mapping entry %d: %w", i, err)
		}
		mapping[i] = v
	}
	return mapping, nil
}

func runDump(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "configuration file")
	dir := fs.String("dir", "", "dump directory to list (default: configured dump_dir)")
	prefix := fs.String("prefix", "", "only list dumps whose label starts with this")
	asYAML := fs.Bool("yaml", false, "print the dumped graph as YAML")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		if *dir == "" {
			s, err := newSession(*cfgPath, stderr)
			if err != nil {
				return err
			}
			*dir = s.cfg.DumpDir
		}
		files, err := dump.List(*dir, *prefix)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(stdout, dimStyle.Render("no dumps in "+*dir))
			return nil
		}
		for _, f := range files {
			fmt.Fprintln(stdout, f)
		}
		return nil
	}

	for _, path := range fs.Args() {
		snap, err := dump.Load(path)
		if err != nil {
			return err
		}
		if !*asYAML {
			fmt.Fprintln(stdout, boxStyle.Render(fmt.Sprintf("%s\nid: %s\nlabel: %s\ncreated: %s\ngraph: %s (%d nodes, %d subgraphs)",
				headerStyle.Render(path), snap.ID, snap.Label, snap.CreatedAt.Format(time.RFC3339),
				snap.Graph.Name, len(snap.Graph.Nodes), len(snap.RecordedSubgraphs))))
			continue
		}
		g, err := snap.Restore()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := writeDefinition(stdout, g); err != nil {
			return err
		}
	}
	return nil
}
