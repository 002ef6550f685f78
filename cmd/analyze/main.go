package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-analyzer/internal/analysis"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/pipeline"
	"github.com/dvloznov/statement-analyzer/internal/schema"
	"github.com/dvloznov/statement-analyzer/internal/session"
)

func main() {
	// .env is optional; flags and real env win
	_ = godotenv.Load()

	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runAnalysis(log)
	case "window":
		runWindow(log)
	case "banks":
		runBanks(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Analyzer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  analyze <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run       Analyze a batch of parsed statement JSON files")
	fmt.Println("  window    Print the 12-month window for an anchor date")
	fmt.Println("  banks     List supported bank keys")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'analyze <command> -h' for more information on a command.")
}

func runAnalysis(log zerolog.Logger) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	anchorFlag := fs.String("anchor", "", "Anchor date YYYY-MM-DD (defaults to today)")
	clientName := fs.String("client", "", "Client name for the report header")
	schemaPath := fs.String("schema", os.Getenv("SCHEMA_CONFIG"), "Path to a YAML schema override file")
	allowMismatch := fs.Bool("allow-holder-mismatch", false, "Accept statements with differing holder IDs")
	fs.Parse(os.Args[2:])

	inputs := fs.Args()
	if len(inputs) == 0 {
		log.Fatal().Msg("Usage: analyze run [options] <statement.json|dir>...")
	}

	anchor := time.Now()
	if *anchorFlag != "" {
		parsed, err := time.Parse("2006-01-02", *anchorFlag)
		if err != nil {
			log.Fatal().Str("anchor", *anchorFlag).Msg("Invalid anchor date, want YYYY-MM-DD")
		}
		anchor = parsed
	}

	reg := schema.Default()
	if *schemaPath != "" {
		loaded, err := schema.LoadFile(*schemaPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *schemaPath).Msg("Failed to load schema config")
		}
		reg = loaded
	}

	sess := session.New(*clientName, anchor)
	sess.AllowHolderMismatch = *allowMismatch

	for _, path := range collectInputFiles(inputs, log) {
		stmt, err := readStatement(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to read statement")
		}
		if err := sess.Add(stmt); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Statement rejected")
		}
		log.Info().
			Str("bank", stmt.Bank).
			Str("source_file", stmt.SourceFile).
			Int("rows", len(stmt.Rows)).
			Msg("Statement added")
	}

	ctx := logger.WithContext(context.Background(), log)

	analyzer := pipeline.NewAnalyzer(reg, nil)
	report, err := analyzer.Run(ctx, sess)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
	fmt.Println(string(out))
}

func runWindow(log zerolog.Logger) {
	fs := flag.NewFlagSet("window", flag.ExitOnError)
	anchorFlag := fs.String("anchor", "", "Anchor date YYYY-MM-DD (defaults to today)")
	fs.Parse(os.Args[2:])

	anchor := time.Now()
	if *anchorFlag != "" {
		parsed, err := time.Parse("2006-01-02", *anchorFlag)
		if err != nil {
			log.Fatal().Str("anchor", *anchorFlag).Msg("Invalid anchor date, want YYYY-MM-DD")
		}
		anchor = parsed
	}

	w := analysis.ComputeWindow(anchor)
	fmt.Printf("%s  %s\n", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

func runBanks(log zerolog.Logger) {
	reg := schema.Default()
	keys := reg.Banks()
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%-20s %s\n", key, reg.Label(key))
	}
}

// collectInputFiles expands directories into their *.json files, keeping
// explicit file arguments as-is.
func collectInputFiles(inputs []string, log zerolog.Logger) []string {
	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			log.Fatal().Err(err).Str("path", in).Msg("Cannot read input")
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(in, "*.json"))
		if err != nil {
			log.Fatal().Err(err).Str("path", in).Msg("Cannot list directory")
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	if len(files) == 0 {
		log.Fatal().Msg("No statement files found")
	}
	return files
}

// statementFile is the on-disk shape the external extractors emit: header
// metadata with string dates plus raw rows keyed by bank-specific columns.
type statementFile struct {
	Bank          string       `json:"bank"`
	SourceFile    string       `json:"source_file"`
	HolderName    string       `json:"holder_name"`
	HolderID      string       `json:"holder_id"`
	AccountNumber string       `json:"account_number"`
	PeriodFrom    string       `json:"period_from"`
	PeriodTo      string       `json:"period_to"`
	GeneratedAt   string       `json:"generated_at"`
	Rows          []domain.Row `json:"rows"`
}

func readStatement(path string) (*domain.Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("readStatement: %w", err)
	}

	var file statementFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("readStatement: parse %s: %w", path, err)
	}
	if file.Bank == "" {
		return nil, fmt.Errorf("readStatement: %s: missing bank key", path)
	}
	if file.SourceFile == "" {
		file.SourceFile = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	stmt := &domain.Statement{
		Bank:          file.Bank,
		SourceFile:    file.SourceFile,
		HolderName:    file.HolderName,
		HolderID:      file.HolderID,
		AccountNumber: file.AccountNumber,
		Rows:          file.Rows,
	}
	if d, ok := analysis.ParseDate(file.PeriodFrom); ok {
		stmt.PeriodFrom = d
	}
	if d, ok := analysis.ParseDate(file.PeriodTo); ok {
		stmt.PeriodTo = d
	}
	if d, ok := analysis.ParseDate(file.GeneratedAt); ok {
		stmt.GeneratedAt = d
	}
	return stmt, nil
}
