package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yara "github.com/hillu/go-yara/v4"
	"github.com/spf13/cobra"
)

var yaraInput string
var yaraRules string
var yaraTimeout int

var yaraCmd = &cobra.Command{
	Use:   "yara",
	Short: "Triage a dump with YARA rules before carving",
	Long:  "Run a directory of YARA rules over a memory dump to decide whether a full carve is worth it (e.g. rules matching known game engines or middleware).",
	Run: func(cmd *cobra.Command, args []string) {
		if yaraInput == "" || yaraRules == "" {
			fmt.Println("[-] Both --input and --rules are required.")
			return
		}
		matches, err := scanDumpWithYara(yaraInput, yaraRules, time.Duration(yaraTimeout)*time.Second)
		if err != nil {
			fmt.Println("[-] YARA scan failed:", err)
			return
		}
		if len(matches) == 0 {
			fmt.Println("[-] No YARA rule matches found")
			return
		}
		fmt.Printf("[+] YARA matches found: %v\n", matches)
	},
}

func init() {
	yaraCmd.Flags().StringVarP(&yaraInput, "input", "i", "", "Path to the dump file")
	yaraCmd.Flags().StringVarP(&yaraRules, "rules", "r", "", "Directory of .yar/.yara rule files")
	yaraCmd.Flags().IntVar(&yaraTimeout, "timeout", 30, "Scan timeout in seconds")
	AddCommand(yaraCmd)
}

type yaraMatchCollector struct {
	matches []string
}

func (yc *yaraMatchCollector) RuleMatching(_ *yara.ScanContext, r *yara.Rule) (bool, error) {
	yc.matches = append(yc.matches, r.Identifier())
	return true, nil
}

func (yc *yaraMatchCollector) RuleNotMatching(_ *yara.ScanContext, _ *yara.Rule) (bool, error) {
	return true, nil
}

func (yc *yaraMatchCollector) TooManyMatches(_ *yara.ScanContext, _ *yara.Rule) (bool, error) {
	return false, nil
}

func scanDumpWithYara(path, rulesPath string, timeout time.Duration) ([]string, error) {
	compiler, err := yara.NewCompiler()
	if err != nil {
		return nil, fmt.Errorf("failed to create YARA compiler: %w", err)
	}

	err = filepath.Walk(rulesPath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access rule path %s: %w", p, err)
		}
		if info.IsDir() {
			return nil
		}
		if ext := filepath.Ext(p); ext == ".yar" || ext == ".yara" {
			f, err := os.Open(p)
			if err != nil {
				return fmt.Errorf("failed to open rule file %s: %w", p, err)
			}
			defer f.Close()
			if err := compiler.AddFile(f, ""); err != nil {
				return fmt.Errorf("failed to add YARA rule file %s: %w", p, err)
			}
			fmt.Printf("[+] Loaded YARA rule file: %s\n", filepath.Base(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk rule directory: %w", err)
	}

	rules, err := compiler.GetRules()
	if err != nil {
		return nil, fmt.Errorf("failed to compile YARA rules: %w", err)
	}

	fmt.Printf("[*] Running YARA scan on %s...\n", filepath.Base(path))
	collector := &yaraMatchCollector{}
	if err := rules.ScanFile(path, 0, timeout, collector); err != nil {
		return nil, fmt.Errorf("YARA scan failed: %w", err)
	}
	return collector.matches, nil
}
