package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glrkit/mcp-template-filler/internal/docx"
	"github.com/glrkit/mcp-template-filler/internal/extraction"
	"github.com/glrkit/mcp-template-filler/internal/report"
	"github.com/glrkit/mcp-template-filler/internal/template"
)

// stringList collects repeated flag values.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

var (
	templatePath = flag.String("template", "", "Path to the DOCX template to fill (required)")
	valuesPath   = flag.String("values", "", "Path to a JSON file of key/value facts")
	outputPath   = flag.String("out", "", "Output path for the filled document")
	oneToOne     = flag.Bool("one-to-one", false, "Consume each fact key after its first match")
	threshold    = flag.Float64("threshold", template.DefaultFuzzyThreshold, "Fuzzy match threshold (0..1)")
	outputFormat = flag.String("format", "text", "Output format: text, json")
	maxFileSize  = flag.Int64("max-file-size", 100*1024*1024, "Maximum report file size in bytes")
	help         = flag.Bool("help", false, "Show help message")

	reportPaths stringList
)

func init() {
	flag.Var(&reportPaths, "report", "Path to a PDF photo report (repeatable)")
	flag.Usage = printHelp
}

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if *templatePath == "" {
		fmt.Fprintf(os.Stderr, "Error: -template is required\n\n")
		printUsage()
		os.Exit(1)
	}
	if *valuesPath == "" && len(reportPaths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: provide -values or at least one -report\n\n")
		printUsage()
		os.Exit(1)
	}

	result, err := runFill(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := outputResult(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		os.Exit(1)
	}
}

// FillCommandResult is the complete outcome of one fill run.
type FillCommandResult struct {
	TemplatePath string           `json:"template_path"`
	OutputPath   string           `json:"output_path,omitempty"`
	Success      bool             `json:"success"`
	Values       template.Record  `json:"values,omitempty"`
	Report       *template.Report `json:"report,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func runFill(ctx context.Context) (*FillCommandResult, error) {
	absTemplate, err := filepath.Abs(*templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	result := &FillCommandResult{
		TemplatePath: absTemplate,
	}

	doc, err := docx.ParseFile(absTemplate)
	if err != nil {
		result.Error = fmt.Sprintf("failed to parse template: %v", err)
		return result, nil
	}

	record, warnings, err := resolveRecord(ctx, doc)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.Values = record
	result.Warnings = warnings

	opts := template.Options{
		OneToOne:       *oneToOne,
		FuzzyThreshold: *threshold,
	}
	filled, fillReport := template.Fill(doc, record, opts)
	result.Report = fillReport

	out := *outputPath
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(absTemplate), filepath.Ext(absTemplate))
		out = filepath.Join(filepath.Dir(absTemplate), base+"_filled.docx")
	}
	if err := filled.WriteFile(out); err != nil {
		result.Error = fmt.Sprintf("failed to write output: %v", err)
		return result, nil
	}

	result.OutputPath = out
	result.Success = true
	return result, nil
}

// resolveRecord loads the fact record: a values file wins, otherwise the
// reports go through LLM extraction (requires GLR_GROQAPIKEY).
func resolveRecord(ctx context.Context, doc *docx.Document) (template.Record, []string, error) {
	if *valuesPath != "" {
		data, err := os.ReadFile(*valuesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read values file: %w", err)
		}
		var record template.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, nil, fmt.Errorf("values file is not a JSON object of strings: %w", err)
		}
		return record, nil, nil
	}

	apiKey := os.Getenv("GLR_GROQAPIKEY")
	if apiKey == "" {
		return nil, nil, fmt.Errorf("LLM extraction requires GLR_GROQAPIKEY (or use -values)")
	}
	client, err := extraction.NewClient(extraction.Config{
		APIKey: apiKey,
		Model:  os.Getenv("GLR_GROQMODEL"),
	})
	if err != nil {
		return nil, nil, err
	}

	// Best effort over the reports: skip unreadable files, surface them
	// as warnings.
	reader := report.NewReader(*maxFileSize)
	var parts []string
	var warnings []string
	for _, path := range reportPaths {
		result, err := reader.Extract(report.ExtractRequest{Path: path})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		parts = append(parts, fmt.Sprintf("=== Document: %s ===\n\n%s",
			filepath.Base(path), result.Content))
	}
	if len(parts) == 0 {
		if len(warnings) > 0 {
			return nil, nil, fmt.Errorf("no readable reports: %s", warnings[0])
		}
		return nil, nil, fmt.Errorf("no readable reports")
	}
	combined := strings.Join(parts, "\n\n")

	record, err := client.Extract(ctx, doc.PlainText(), combined)
	if err != nil {
		return nil, nil, err
	}
	return record, warnings, nil
}

func outputResult(result *FillCommandResult) error {
	switch *outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "text":
		return outputText(result)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputText(result *FillCommandResult) error {
	if !result.Success {
		fmt.Printf("Fill failed: %s\n", result.Error)
		return nil
	}

	fmt.Printf("%s\n", result.Report.Summary())
	fmt.Printf("Output: %s\n", result.OutputPath)

	if len(result.Report.UnmatchedLabels) > 0 {
		fmt.Println("\nUnmatched fields:")
		for _, label := range result.Report.UnmatchedLabels {
			fmt.Printf("  %s\n", label)
		}
	}
	if len(result.Report.UnusedKeys) > 0 {
		fmt.Printf("\nUnused fact keys: %s\n", strings.Join(result.Report.UnusedKeys, ", "))
	}
	if len(result.Report.Ambiguities) > 0 {
		fmt.Println("\nAmbiguities (resolved alphabetically):")
		for _, amb := range result.Report.Ambiguities {
			fmt.Printf("  %s: %s (score %.2f)\n", amb.Label, strings.Join(amb.Keys, ", "), amb.Score)
		}
	}
	if len(result.Report.PopulationErrors) > 0 {
		fmt.Println("\nPopulation errors:")
		for _, pe := range result.Report.PopulationErrors {
			fmt.Printf("  %s: %s\n", pe.Label, pe.Reason)
		}
	}
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	return nil
}

func printHelp() {
	fmt.Println("template_fill - Fill a DOCX claim template from extracted facts")
	fmt.Println()
	fmt.Println("Matches fact keys against the template's detected fields (table rows,")
	fmt.Println("colon-terminated labels, bracketed placeholders) and writes a filled copy.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -template      Path to the DOCX template (required)")
	fmt.Println("  -values        JSON file of key/value facts (skips LLM extraction)")
	fmt.Println("  -report        PDF photo report to extract facts from (repeatable)")
	fmt.Println("  -out           Output path (default: <template>_filled.docx)")
	fmt.Println("  -one-to-one    Consume each fact key after its first match")
	fmt.Println("  -threshold     Fuzzy match threshold, 0..1 (default 0.5)")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  template_fill -template claim.docx -values facts.json")
	fmt.Println("  template_fill -template claim.docx -report photos1.pdf -report photos2.pdf")
	fmt.Println("  template_fill -template claim.docx -values facts.json -format json -out filled.docx")
	fmt.Println()
	fmt.Println("LLM extraction reads GLR_GROQAPIKEY (and optional GLR_GROQMODEL) from the")
	fmt.Println("environment when -values is not given.")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  template_fill [OPTIONS] -template <docx_file>")
}
