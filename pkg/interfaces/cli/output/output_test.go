package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vsinha/recipecost/pkg/application/dto"
	"github.com/vsinha/recipecost/pkg/application/services/costing"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/services"
	testhelpers "github.com/vsinha/recipecost/pkg/infrastructure/testing"
)

func pizzaCostDocument(t *testing.T) *Document {
	t.Helper()
	catalog := testhelpers.BuildPizzaScenario()
	breakdown, err := costing.NewCalculator(catalog).ComputeCost(context.Background(), "dough")
	if err != nil {
		t.Fatalf("ComputeCost failed: %v", err)
	}
	return CostDocument(breakdown, catalog)
}

func roundedString(t *testing.T, value string) string {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("Invalid decimal %q: %v", value, err)
	}
	return d.StringFixed(4)
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(pizzaCostDocument(t), Config{Format: "text", Stdout: &buf}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Cost of Pizza Dough (dough)", "Batch cost:", "$1.0000", "Cost per each:", "$0.1000", "item:flour", "Flour"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected text output to contain %q:\n%s", want, out)
		}
	}
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(pizzaCostDocument(t), Config{Format: "json", Stdout: &buf}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var view costView
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if view.RecipeID != "dough" || roundedString(t, view.Total) != "1.0000" || len(view.Lines) != 2 {
		t.Errorf("Unexpected JSON payload: %+v", view)
	}
	if view.Lines[0].Component != "item:flour" || view.Lines[0].Name != "Flour" {
		t.Errorf("Unexpected first line: %+v", view.Lines[0])
	}
}

func TestGenerate_Msgpack(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(pizzaCostDocument(t), Config{Format: "msgpack", Stdout: &buf}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var view costView
	if err := msgpack.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("Output is not valid msgpack: %v", err)
	}
	if view.Name != "Pizza Dough" || roundedString(t, view.PerYieldUnit) != "0.1000" {
		t.Errorf("Unexpected msgpack payload: %+v", view)
	}
}

func TestGenerate_HTMLEscapes(t *testing.T) {
	doc := &Document{
		Name:  "report",
		Title: "Costs <draft>",
		Tables: []Table{{
			Name:   "Lines",
			Header: []string{"Name"},
			Rows:   [][]string{{"<script>alert(1)</script>"}},
		}},
	}
	var buf bytes.Buffer
	if err := Generate(doc, Config{Format: "html", Stdout: &buf}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("Expected table cells to be escaped")
	}
	if !strings.Contains(out, "Costs &lt;draft&gt;") {
		t.Errorf("Expected escaped title, got:\n%s", out)
	}
}

func TestGenerate_Files(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := pizzaCostDocument(t)
	var progress bytes.Buffer

	if err := Generate(doc, Config{Format: "csv", Stdout: &progress}); err == nil {
		t.Errorf("Expected CSV without an output directory to fail")
	}

	for _, format := range []string{"csv", "json", "text", "html", "msgpack"} {
		if err := Generate(doc, Config{Format: format, OutputDir: dir, Verbose: true, Stdout: &progress}); err != nil {
			t.Fatalf("Generate %s failed: %v", format, err)
		}
	}

	for _, name := range []string{"cost_dough_lines.csv", "cost_dough.json", "cost_dough.txt", "cost_dough.html", "cost_dough.msgpack"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "cost_dough_lines.csv"))
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	rows := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(rows) != 3 || !strings.HasPrefix(rows[0], "Pos,Component") {
		t.Errorf("Expected header and 2 rows, got %q", rows)
	}
	if !strings.Contains(progress.String(), "cost_dough.json") {
		t.Errorf("Expected verbose progress to name the written files")
	}
}

func TestGenerate_UnknownFormat(t *testing.T) {
	err := Generate(&Document{Name: "x"}, Config{Format: "yaml", Stdout: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "unsupported output format: yaml") {
		t.Errorf("Expected unsupported format error, got %v", err)
	}
}

func TestRecalculationDocument(t *testing.T) {
	result := &dto.RecalculationResult{
		RunID:    "run-1",
		Source:   entities.InventoryItemRef{ID: "flour"},
		Affected: []entities.RecipeID{"dough", "pizza", "calzone"},
		Order:    []entities.RecipeID{"dough", "pizza", "calzone"},
		Updates: map[entities.RecipeID]decimal.Decimal{
			"pizza": decimal.RequireFromString("1.17"),
			"dough": decimal.RequireFromString("1.2"),
		},
		PreviousCosts: map[entities.RecipeID]decimal.Decimal{
			"pizza": decimal.RequireFromString("1.15"),
			"dough": decimal.RequireFromString("1"),
		},
		Failures: map[entities.RecipeID]error{"calzone": errors.New("boom")},
	}

	doc := RecalculationDocument(result, false)
	view, ok := doc.Payload.(recalculationView)
	if !ok {
		t.Fatalf("Unexpected payload type %T", doc.Payload)
	}
	if view.Source != "item:flour" || view.Committed {
		t.Errorf("Unexpected view: %+v", view)
	}
	if len(view.Updates) != 2 || view.Updates[0].RecipeID != "dough" || view.Updates[1].RecipeID != "pizza" {
		t.Errorf("Expected updates in evaluation order, got %+v", view.Updates)
	}
	if doc.Tables[0].Rows[0][3] != "$0.2000" {
		t.Errorf("Expected dough change of $0.2000, got %s", doc.Tables[0].Rows[0][3])
	}
	if len(view.Failures) != 1 || view.Failures[0].Error != "boom" {
		t.Errorf("Unexpected failures: %+v", view.Failures)
	}

	all := RecalculationDocument(&dto.RecalculationResult{RunID: "run-2"}, true)
	if all.Payload.(recalculationView).Source != "all recipes" {
		t.Errorf("Expected a full recalculation to be labelled as such")
	}
}

func TestValidationDocument(t *testing.T) {
	result := &services.ValidationResult{
		HasCycles:  true,
		CyclePaths: [][]entities.RecipeID{{"a", "b", "a"}},
		Errors:     []string{"cyclic recipe reference: a -> b -> a"},
		Warnings:   []string{"recipe b is used as a component but is not flagged as a sub-recipe"},
	}

	doc := ValidationDocument(result)
	view := doc.Payload.(validationView)
	if view.Valid {
		t.Errorf("Expected invalid catalog")
	}
	if len(doc.Tables[0].Rows) != 2 || doc.Tables[0].Rows[0][0] != "error" || doc.Tables[0].Rows[1][0] != "warning" {
		t.Errorf("Expected errors before warnings, got %v", doc.Tables[0].Rows)
	}
}

func TestVarianceDocuments(t *testing.T) {
	report := &dto.VarianceReport{
		StoreID: testhelpers.PizzaStore,
		Lines: []dto.VarianceLine{{
			InventoryItemID:     "cheese",
			InventoryItemName:   "Mozzarella",
			UnitAbbreviation:    "lb",
			ActualQty:           3,
			TheoreticalQty:      2.5,
			VarianceQty:         0.5,
			IncludesPlaceholder: true,
		}},
		Errors: []dto.LineError{{SKU: "SKU-GHOST", Message: "menu item not found: sku SKU-GHOST"}},
	}

	doc := VarianceDocument(report)
	if doc.Name != "variance_store-1" {
		t.Errorf("Unexpected document name %s", doc.Name)
	}
	row := doc.Tables[0].Rows[0]
	if row[0] != "Mozzarella" || row[7] != "0.5" || row[11] != "yes" {
		t.Errorf("Unexpected variance row %v", row)
	}
	if len(doc.Tables[2].Rows) != 1 || doc.Tables[2].Rows[0][1] != "SKU-GHOST" {
		t.Errorf("Expected the line error table, got %v", doc.Tables[2].Rows)
	}

	detail := DetailDocument(&dto.TheoreticalDetail{
		Summary: dto.TheoreticalSummary{InventoryItemID: "cheese", InventoryItemName: "Mozzarella", TotalQty: 2.5, UnitAbbreviation: "lb"},
		MenuItems: []dto.MenuItemUsage{
			{MenuItemName: "Cheese Pizza", QtySold: 10, TheoreticalQty: 2.5, Cost: decimal.NewFromInt(10)},
		},
	})
	if detail.Tables[0].Rows[0][3] != "0.25" {
		t.Errorf("Expected usage per sale 0.25, got %s", detail.Tables[0].Rows[0][3])
	}
}
