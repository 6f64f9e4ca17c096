package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/vmihailenco/msgpack/v5"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Stdout receives results when OutputDir is empty, and progress messages
	Stdout io.Writer
}

// Table is one tabular section of a result
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Document is a rendered command result. Text, CSV and HTML render the tables; JSON and
// MessagePack encode Payload.
type Document struct {
	Name    string
	Title   string
	Summary []Field
	Tables  []Table
	Payload interface{}
}

// Field is one labelled summary value
type Field struct {
	Label string
	Value string
}

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "msgpack", "html"}

// Generate writes the document in the configured format
func Generate(doc *Document, config Config) error {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	switch config.Format {
	case "", "text":
		return generateTextOutput(doc, config)
	case "json":
		return generateJSONOutput(doc, config)
	case "csv":
		return generateCSVOutput(doc, config)
	case "msgpack":
		return generateMsgpackOutput(doc, config)
	case "html":
		return generateHTMLOutput(doc, config)
	default:
		return fmt.Errorf("unsupported output format: %s (expected one of %s)", config.Format, strings.Join(Formats, ", "))
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(doc *Document, config Config) error {
	if config.OutputDir == "" {
		return writeText(config.Stdout, doc)
	}

	filename, err := outputFile(config, doc.Name+".txt")
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create text file: %w", err)
	}
	defer file.Close()

	if err := writeText(file, doc); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.Stdout, "💾 Results saved to: %s\n", filename)
	}
	return nil
}

func writeText(w io.Writer, doc *Document) error {
	fmt.Fprintf(w, "%s\n%s\n\n", doc.Title, strings.Repeat("=", len([]rune(doc.Title))))

	if len(doc.Summary) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, field := range doc.Summary {
			fmt.Fprintf(tw, "%s:\t%s\n", field.Label, field.Value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	for _, table := range doc.Tables {
		if len(table.Rows) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", table.Name)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
		dashes := make([]string, len(table.Header))
		for i, col := range table.Header {
			dashes[i] = strings.Repeat("-", len(col))
		}
		fmt.Fprintln(tw, strings.Join(dashes, "\t"))
		for _, row := range table.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(doc *Document, config Config) error {
	jsonData, err := json.MarshalIndent(doc.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.Stdout, string(jsonData))
		return err
	}

	filename, err := outputFile(config, doc.Name+".json")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Stdout, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateMsgpackOutput creates MessagePack output
func generateMsgpackOutput(doc *Document, config Config) error {
	data, err := msgpack.Marshal(doc.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal msgpack: %w", err)
	}

	if config.OutputDir == "" {
		_, err := config.Stdout.Write(data)
		return err
	}

	filename, err := outputFile(config, doc.Name+".msgpack")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write msgpack file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Stdout, "💾 MessagePack results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per table
func generateCSVOutput(doc *Document, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	written := make([]string, 0, len(doc.Tables))
	for _, table := range doc.Tables {
		filename, err := outputFile(config, doc.Name+"_"+tableFileName(table.Name)+".csv")
		if err != nil {
			return err
		}
		if err := writeTableCSV(table, filename); err != nil {
			return fmt.Errorf("failed to write %s CSV: %w", table.Name, err)
		}
		written = append(written, filename)
	}

	if config.Verbose {
		fmt.Fprintf(config.Stdout, "💾 CSV results saved to:\n")
		for _, filename := range written {
			fmt.Fprintf(config.Stdout, "  %s\n", filename)
		}
	}
	return nil
}

func writeTableCSV(table Table, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return err
	}
	return writer.Error()
}

func outputFile(config Config, name string) (string, error) {
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(config.OutputDir, name), nil
}

func tableFileName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
