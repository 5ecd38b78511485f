package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jackmaun/x360carve/carvers"
	"github.com/jackmaun/x360carve/formats"
	"github.com/jackmaun/x360carve/scanners"
)

var carveInput string
var carveOut string
var carveTypes []string
var carveChunkMB int
var carveMaxFiles int
var carveThreads int
var carveNoConvert bool
var carveBlacklist string
var carveConfig string
var carveVerbose bool
var carveNoMmap bool
var carveRemote bool
var carveHost string
var carveUser string
var carvePass string
var carveShare string
var carveRemotePath string

var carveCmd = &cobra.Command{
	Use:   "carve",
	Short: "Carve game assets from a memory dump",
	Run: func(cmd *cobra.Command, args []string) {
		if carveConfig != "" {
			if err := loadCarveConfig(carveConfig); err != nil {
				color.Red("[-] Failed to load config: %v", err)
				return
			}
		}

		if carveRemote {
			fmt.Println("[*] Fetching remote dump via SMB2...")
			local, err := fetchRemoteDump(carveHost, carveUser, carvePass, carveShare, carveRemotePath)
			if err != nil {
				color.Red("[-] Remote fetch failed: %v", err)
				return
			}
			defer os.Remove(local)
			carveOne(local)
			return
		}

		if carveInput == "" {
			color.Red("[-] No input specified. Use --input or --remote.")
			return
		}

		dumps, err := findDumpFiles(carveInput)
		if err != nil {
			color.Red("[-] Error while locating dumps: %v", err)
			return
		}
		if len(dumps) == 0 {
			color.Red("[-] No .dmp files found at: %s", carveInput)
			return
		}
		fmt.Printf("[*] Found %d dump file(s) to process\n", len(dumps))
		for _, dump := range dumps {
			carveOne(dump)
		}
	},
}

func init() {
	carveCmd.Flags().StringVarP(&carveInput, "input", "i", "", "Path to a .dmp file or a directory of dumps")
	carveCmd.Flags().StringVarP(&carveOut, "out", "o", "./output", "Base output directory for carved assets")
	carveCmd.Flags().StringSliceVar(&carveTypes, "types", nil, "Specific format ids to carve (default: all)")
	carveCmd.Flags().IntVar(&carveChunkMB, "chunk-size", 10, "Scan window size in MB")
	carveCmd.Flags().IntVar(&carveMaxFiles, "max-files", carvers.DefaultMaxPerFormat, "Maximum files carved per format")
	carveCmd.Flags().IntVar(&carveThreads, "threads", carvers.DefaultWorkers, "Concurrent extractions per chunk")
	carveCmd.Flags().BoolVar(&carveNoConvert, "no-convert", false, "Skip post-extraction conversion (zlib inflate, DDS endian swap)")
	carveCmd.Flags().StringVar(&carveBlacklist, "blacklist", "", "File of offsets (hex or decimal, one per line) to skip")
	carveCmd.Flags().StringVar(&carveConfig, "config", "", "YAML config file overriding carve settings")
	carveCmd.Flags().BoolVarP(&carveVerbose, "verbose", "v", false, "Enable debug logging")
	carveCmd.Flags().BoolVar(&carveNoMmap, "no-mmap", false, "Use positioned reads instead of mmap")
	carveCmd.Flags().BoolVar(&carveRemote, "remote", false, "Fetch the dump from a remote SMB share first")
	carveCmd.Flags().StringVar(&carveHost, "host", "", "Remote host IP or name")
	carveCmd.Flags().StringVar(&carveUser, "username", "", "Remote username")
	carveCmd.Flags().StringVar(&carvePass, "password", "", "Remote password")
	carveCmd.Flags().StringVar(&carveShare, "share", "C$", "Remote share name")
	carveCmd.Flags().StringVar(&carveRemotePath, "path", "", "Dump path on the remote share")
	AddCommand(carveCmd)
}

// loadCarveConfig overlays settings from a YAML file onto the flag values.
func loadCarveConfig(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	if v.IsSet("chunk_size_mb") {
		carveChunkMB = v.GetInt("chunk_size_mb")
	}
	if v.IsSet("max_files") {
		carveMaxFiles = v.GetInt("max_files")
	}
	if v.IsSet("threads") {
		carveThreads = v.GetInt("threads")
	}
	if v.IsSet("types") {
		carveTypes = v.GetStringSlice("types")
	}
	if v.IsSet("no_convert") {
		carveNoConvert = v.GetBool("no_convert")
	}
	if v.IsSet("output") {
		carveOut = v.GetString("output")
	}
	return nil
}

func newCLILogger() *log.Logger {
	level := log.InfoLevel
	if carveVerbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "carve",
	})
}

func carveOne(dumpPath string) {
	logger := newCLILogger()

	src, closeSrc, err := openSource(dumpPath)
	if err != nil {
		color.Red("[-] %v", err)
		return
	}
	defer closeSrc()

	dumpName := strings.TrimSuffix(filepath.Base(dumpPath), filepath.Ext(dumpPath))
	outDir := filepath.Join(carveOut, dumpName)

	fmt.Printf("[*] Carving %s (%s) -> %s\n", filepath.Base(dumpPath), humanize.IBytes(uint64(src.Size())), outDir)

	var blacklist []int64
	if carveBlacklist != "" {
		blacklist, err = readBlacklist(carveBlacklist)
		if err != nil {
			color.Red("[-] Failed to read blacklist: %v", err)
			return
		}
		fmt.Printf("[*] Skipping %d blacklisted offsets\n", len(blacklist))
	}

	var selected []formats.Format
	if len(carveTypes) > 0 {
		selected = formats.Filter(carveTypes)
		if len(selected) == 0 {
			color.Red("[-] No known format ids in --types (known: %s)", strings.Join(formats.IDs(), ", "))
			return
		}
	}

	bar := pb.Full.Start(progressScale)
	carver, err := carvers.New(carvers.Options{
		OutputRoot:   outDir,
		Formats:      selected,
		MaxPerFormat: carveMaxFiles,
		WindowSize:   carveChunkMB * 1024 * 1024,
		Workers:      carveThreads,
		NoConvert:    carveNoConvert,
		Blacklist:    blacklist,
		Logger:       logger,
		Progress:     &barProgress{bar: bar},
	})
	if err != nil {
		bar.Finish()
		color.Red("[-] %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest, err := carver.Carve(ctx, src, filepath.Base(dumpPath))
	bar.Finish()
	if manifest == nil {
		color.Red("[-] Carve failed: %v", err)
		return
	}
	if err != nil {
		color.Yellow("[!] Carve interrupted; partial manifest saved")
	}
	printSummary(manifest)
}

func openSource(path string) (scanners.ByteSource, func() error, error) {
	if !carveNoMmap {
		if src, err := scanners.OpenMmap(path); err == nil {
			return src, src.Close, nil
		}
	}
	src, err := scanners.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return src, src.Close, nil
}

// progressScale keeps the bar integral; fractions map onto 0..1000.
const progressScale = 1000

type barProgress struct {
	bar *pb.ProgressBar
}

func (b *barProgress) Update(fraction float64, _ string) {
	b.bar.SetCurrent(int64(fraction * progressScale))
}

func findDumpFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".dmp") {
			found = append(found, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(found)
	return found, nil
}

func readBlacklist(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var offsets []int64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var v int64
		if lower := strings.ToLower(line); strings.HasPrefix(lower, "0x") {
			v, err = strconv.ParseInt(lower[2:], 16, 64)
		} else {
			v, err = strconv.ParseInt(line, 10, 64)
		}
		if err != nil {
			return nil, fmt.Errorf("bad offset %q: %w", line, err)
		}
		offsets = append(offsets, v)
	}
	return offsets, sc.Err()
}

func printSummary(m *carvers.Manifest) {
	fmt.Println()
	color.Green("[+] Carved %d files (%s in dump, %s written)",
		m.Summary.TotalFiles,
		humanize.IBytes(uint64(m.Summary.TotalBytesInDump)),
		humanize.IBytes(uint64(m.Summary.TotalBytesOutput)))

	ids := make([]string, 0, len(m.Summary.ByType))
	for id := range m.Summary.ByType {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ts := m.Summary.ByType[id]
		fmt.Printf("    %-14s %5d files  %10s\n", id, ts.Count, humanize.IBytes(uint64(ts.BytesOutput)))
	}
	if m.Summary.Converted > 0 || m.Summary.ConversionFailures > 0 {
		fmt.Printf("[*] Conversions: %d ok, %d failed\n", m.Summary.Converted, m.Summary.ConversionFailures)
	}
	if m.Summary.DuplicateOffsets > 0 || m.Summary.CapSkips > 0 {
		fmt.Printf("[*] Skipped: %d duplicate offsets, %d over-cap candidates\n",
			m.Summary.DuplicateOffsets, m.Summary.CapSkips)
	}
	fmt.Printf("[*] Manifest: %s\n", carvers.ManifestName)
}
