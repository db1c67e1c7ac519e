// Command rirtool measures room reverberation times from recorded
// sweep responses: it generates the reference excitation, extracts
// impulse responses from recordings, fits T60 over several decay
// windows, and keeps a summary database across measurement sessions.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-rir/deconv"
	"github.com/cwbudde/algo-rir/internal/report"
	"github.com/cwbudde/algo-rir/internal/wavio"
	"github.com/cwbudde/algo-rir/pipeline"
	"github.com/cwbudde/algo-rir/rt"
)

const (
	defaultSampleRate = 16000
	defaultDuration   = 5.0
	defaultStartFreq  = 500.0
	defaultEndFreq    = 4000.0
	defaultMethod     = "spectral"
	defaultEpsilon    = 1e-12
	defaultOutDir     = "rir_analysis_output"
	defaultPattern    = "RIR_*.wav"
	defaultDBName     = "rir_t60_summary.db"
	defaultChirpOut   = "reference_chirp.wav"
)

var (
	cfgPath      string
	flagRate     int
	flagDuration float64
	flagStart    float64
	flagEnd      float64
	flagMethod   string
	flagEpsilon  float64
	flagOutDir   string
	flagDB       string
	flagPattern  string
	flagBands    []float64

	analyzeDir   string
	analyzeGuide bool

	batchDir string

	chirpOut string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rirtool",
		Short:         "Room impulse response measurement and T60 analysis",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "rirtool.toml", "path to TOML config file")
	pf.IntVar(&flagRate, "rate", defaultSampleRate, "sample rate in Hz")
	pf.Float64Var(&flagDuration, "duration", defaultDuration, "sweep duration in seconds")
	pf.Float64Var(&flagStart, "start-freq", defaultStartFreq, "sweep start frequency in Hz")
	pf.Float64Var(&flagEnd, "end-freq", defaultEndFreq, "sweep end frequency in Hz")
	pf.StringVar(&flagMethod, "method", defaultMethod, "deconvolution method: spectral or matched")
	pf.Float64Var(&flagEpsilon, "epsilon", defaultEpsilon, "spectral regularization constant")
	pf.StringVar(&flagOutDir, "out-dir", defaultOutDir, "output directory for analysis artifacts")
	pf.StringVar(&flagDB, "db", "", "summary database path (default: <out-dir>/"+defaultDBName+")")
	pf.StringVar(&flagPattern, "pattern", defaultPattern, "glob pattern for recording discovery")
	pf.Float64SliceVar(&flagBands, "bands", nil, "octave band centers in Hz for band-limited T60")

	rootCmd.AddCommand(newChirpCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newSummaryCmd())

	return rootCmd
}

func newChirpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chirp",
		Short: "Write the reference excitation sweep as a WAV file",
		Args:  cobra.NoArgs,
		RunE:  runChirpCmd,
	}
	cmd.Flags().StringVar(&chirpOut, "out", defaultChirpOut, "output WAV path")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [recording.wav]",
		Short: "Analyze one recorded sweep response",
		Long: `Analyze one recorded sweep response.

Without an argument the newest recording matching --pattern in --dir
is picked up, so a capture can be analyzed right after it lands.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyzeCmd,
	}
	cmd.Flags().StringVar(&analyzeDir, "dir", ".", "directory searched for recordings")
	cmd.Flags().BoolVar(&analyzeGuide, "setup-guide", false, "walk through the measurement setup before analyzing")
	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every matching recording in a directory",
		Args:  cobra.NoArgs,
		RunE:  runBatchCmd,
	}
	cmd.Flags().StringVar(&batchDir, "dir", ".", "directory searched for recordings")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the stored measurement summary",
		Args:  cobra.NoArgs,
		RunE:  runSummaryCmd,
	}
}

// settings bundles the merged measurement configuration with the
// output locations.
type settings struct {
	pipeline pipeline.Config
	outDir   string
	dbPath   string
	pattern  string
}

// loadSettings merges defaults, the TOML config file, and command line
// flags. Flags win over the file, the file wins over defaults.
func loadSettings(cmd *cobra.Command) (settings, error) {
	fc, err := loadFileConfig(cfgPath)
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}

	applyIntConfig(cmd, "rate", &flagRate, fc.SampleRate)
	applyFloatConfig(cmd, "duration", &flagDuration, fc.Duration)
	applyFloatConfig(cmd, "start-freq", &flagStart, fc.StartFreq)
	applyFloatConfig(cmd, "end-freq", &flagEnd, fc.EndFreq)
	applyStringConfig(cmd, "method", &flagMethod, fc.Method)
	applyFloatConfig(cmd, "epsilon", &flagEpsilon, fc.Epsilon)
	applyStringConfig(cmd, "out-dir", &flagOutDir, fc.OutDir)
	applyStringConfig(cmd, "db", &flagDB, fc.Database)
	applyStringConfig(cmd, "pattern", &flagPattern, fc.Pattern)
	if !cmd.Flags().Changed("bands") && len(fc.Bands) > 0 {
		flagBands = fc.Bands
	}

	method, err := deconv.ParseMethod(flagMethod)
	if err != nil {
		return settings{}, err
	}

	ranges := rt.DefaultRanges()
	if len(fc.Ranges) > 0 {
		ranges = make([]rt.Range, len(fc.Ranges))
		for i, rc := range fc.Ranges {
			ranges[i] = rt.Range{Name: rc.Name, Start: rc.Start, End: rc.End}
		}
	}

	dbPath := flagDB
	if dbPath == "" {
		dbPath = filepath.Join(flagOutDir, defaultDBName)
	}

	return settings{
		pipeline: pipeline.Config{
			SampleRate: float64(flagRate),
			Duration:   flagDuration,
			StartFreq:  flagStart,
			EndFreq:    flagEnd,
			Method:     method,
			Epsilon:    flagEpsilon,
			Ranges:     ranges,
			Bands:      flagBands,
		},
		outDir:  flagOutDir,
		dbPath:  dbPath,
		pattern: flagPattern,
	}, nil
}

func runChirpCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	p, err := pipeline.New(s.pipeline)
	if err != nil {
		return err
	}

	if err := wavio.WriteMono16(chirpOut, p.Chirp(), int(s.pipeline.SampleRate)); err != nil {
		return fmt.Errorf("failed to write chirp: %w", err)
	}

	fmt.Printf("Reference chirp written to '%s' (%g-%g Hz, %g s at %d Hz)\n",
		chirpOut, s.pipeline.StartFreq, s.pipeline.EndFreq, s.pipeline.Duration, int(s.pipeline.SampleRate))
	return nil
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if analyzeGuide {
		printSetupGuide()
	}

	var input string
	if len(args) > 0 {
		input = args[0]
	} else {
		input, err = findNewestRecording(analyzeDir, s.pattern)
		if err != nil {
			return err
		}
		fmt.Printf("Found newest recording: '%s'\n", filepath.Base(input))
	}

	p, err := pipeline.New(s.pipeline)
	if err != nil {
		return err
	}

	st, err := report.OpenStore(s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open summary database: %w", err)
	}
	defer st.Close()

	return processRecording(p, st, s, input)
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	matches, err := filepath.Glob(filepath.Join(batchDir, s.pattern))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no recordings matching %q in %s", s.pattern, batchDir)
	}
	sortByModTime(matches)

	p, err := pipeline.New(s.pipeline)
	if err != nil {
		return err
	}

	st, err := report.OpenStore(s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open summary database: %w", err)
	}
	defer st.Close()

	failed := 0
	for _, m := range matches {
		if err := processRecording(p, st, s, m); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			failed++
		}
	}

	fmt.Printf("\nProcessed %d of %d recordings\n", len(matches)-failed, len(matches))
	if failed > 0 {
		return fmt.Errorf("%d of %d recordings failed", failed, len(matches))
	}
	return nil
}

func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	st, err := report.OpenStore(s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open summary database: %w", err)
	}
	defer st.Close()

	measurements, err := st.ListMeasurements(context.Background())
	if err != nil {
		return err
	}
	if len(measurements) == 0 {
		fmt.Println("No measurements stored yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tRECORDED\tPEAK\tFITS")
	for _, m := range measurements {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			m.ID, m.Source, m.CreatedAt.Local().Format("2006-01-02 15:04"),
			m.PeakIndex, formatFits(s.pipeline.Ranges, m.Fits))
	}
	return w.Flush()
}

// processRecording runs the analysis chain for one file and writes all
// artifacts: extracted impulse response, decay CSV, decay plot, and
// the summary database row.
func processRecording(p *pipeline.Pipeline, st *report.Store, s settings, path string) error {
	fmt.Printf("\nProcessing '%s'...\n", filepath.Base(path))

	samples, rate, err := wavio.ReadMono(path)
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}
	if float64(rate) != s.pipeline.SampleRate {
		return fmt.Errorf("%s: recording rate %d Hz does not match configured rate %d Hz",
			filepath.Base(path), rate, int(s.pipeline.SampleRate))
	}

	res, err := p.Process(samples)
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", filepath.Base(path), err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	rirPath := filepath.Join(s.outDir, base+"_extracted_RIR.wav")
	if err := wavio.WriteMono16(rirPath, res.ImpulseResponse, rate); err != nil {
		return fmt.Errorf("failed to write impulse response: %w", err)
	}

	csvPath := filepath.Join(s.outDir, base+"_rir_energy_decay_data.csv")
	if err := report.WriteDecayCSV(csvPath, res.Curve); err != nil {
		return fmt.Errorf("failed to write decay data: %w", err)
	}

	if name, best, ok := res.Best(); ok {
		if r, found := findRange(s.pipeline.Ranges, name); found {
			title := fmt.Sprintf("Energy decay for %s\nEstimated T60: %.3f s (via %s fit)", base, best.T60, name)
			plotPath := filepath.Join(s.outDir, base+"_EDC.png")
			if err := report.SaveDecayPlot(plotPath, title, res.Curve, r, best); err != nil {
				return fmt.Errorf("failed to write decay plot: %w", err)
			}
		}
	}

	printResults(s.pipeline.Ranges, res)

	m := report.Measurement{
		Source:     filepath.Base(path),
		SampleRate: rate,
		PeakIndex:  res.PeakIndex,
		Fits:       res.Fits,
	}
	if _, err := st.InsertMeasurement(context.Background(), m); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}

	return nil
}

func printResults(ranges []rt.Range, res *pipeline.Result) {
	fmt.Println("\n*** RIR analysis results ***")
	fmt.Printf("Peak at sample %d\n", res.PeakIndex)
	for _, r := range ranges {
		fit, ok := res.Fits[r.Name]
		if !ok || !fit.Valid {
			fmt.Printf("| %s fit: failed (insufficient clean decay)\n", r.Name)
			continue
		}
		fmt.Printf("| %s fit (%.0f to %.0f dB): T60=%.3f s, slope=%.3f dB/s\n",
			r.Name, r.Start, r.End, fit.T60, fit.Slope)
	}
	for _, b := range res.Bands {
		if name, fit, ok := b.Best(); ok {
			fmt.Printf("| %.0f Hz band: T60=%.3f s (via %s)\n", b.Center, fit.T60, name)
		} else {
			fmt.Printf("| %.0f Hz band: failed\n", b.Center)
		}
	}
	fmt.Println("****************************")
}

// findRange returns the configured range with the given name.
func findRange(ranges []rt.Range, name string) (rt.Range, bool) {
	for _, r := range ranges {
		if r.Name == name {
			return r, true
		}
	}
	return rt.Range{}, false
}

// formatFits renders per-range T60 values in configured order, with a
// dash for fits that failed. Stored ranges missing from the current
// configuration are appended alphabetically.
func formatFits(ranges []rt.Range, fits map[string]rt.Result) string {
	configured := make(map[string]bool, len(ranges))
	parts := make([]string, 0, len(fits))

	for _, r := range ranges {
		configured[r.Name] = true
		fit, ok := fits[r.Name]
		if !ok {
			continue
		}
		parts = append(parts, formatFit(r.Name, fit))
	}

	var extra []string
	for name := range fits {
		if !configured[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		parts = append(parts, formatFit(name, fits[name]))
	}

	return strings.Join(parts, " ")
}

func formatFit(name string, fit rt.Result) string {
	if !fit.Valid {
		return name + "=-"
	}
	return fmt.Sprintf("%s=%.3fs", name, fit.T60)
}

// findNewestRecording returns the most recently modified file matching
// pattern in dir.
func findNewestRecording(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no recordings matching %q in %s", pattern, dir)
	}

	newest := ""
	var newestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return "", err
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = m
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

// sortByModTime orders paths oldest first so batch summaries read
// chronologically. Files that fail to stat sort last.
func sortByModTime(paths []string) {
	mods := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			mods[p] = info.ModTime()
		} else {
			mods[p] = time.Unix(1<<50, 0)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return mods[paths[i]].Before(mods[paths[j]])
	})
}

// printSetupGuide walks the operator through measurement hygiene,
// pausing for confirmation between steps. Strong early reflections
// from nearby hard surfaces inflate the measured decay times.
func printSetupGuide() {
	fmt.Println("========================================================")
	fmt.Println("                RIR measurement setup")
	fmt.Println("========================================================")
	fmt.Println()
	fmt.Println("STEP 1: Point the speaker/microphone rig away from the")
	fmt.Println("        operator position and any reflective equipment.")
	fmt.Println("STEP 2: Cover remaining hard surfaces near the rig with")
	fmt.Println("        thick soft material taller than the gear.")
	fmt.Println()
	waitForEnter("Press ENTER when the physical setup is ready...")
	fmt.Println()
	fmt.Println("Trigger the sweep playback now and let the recording run")
	fmt.Println("until the room has fully decayed.")
	fmt.Println()
	waitForEnter("Press ENTER once the recording is saved...")
	fmt.Println()
}

func waitForEnter(prompt string) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	if _, err := reader.ReadString('\n'); err != nil {
		// Non-interactive stdin; continue without waiting.
		fmt.Println()
	}
}
