package enricher

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetquote/internal/provider"
	"sheetquote/internal/utils"
	"sheetquote/models"
)

// fakeProvider returns canned records and counts lookups per symbol.
type fakeProvider struct {
	records map[string]*models.QuoteRecord
	calls   map[string]int
}

func (f *fakeProvider) Lookup(_ context.Context, symbol string) (*models.QuoteRecord, error) {
	f.calls[symbol]++
	r, ok := f.records[symbol]
	if !ok {
		return nil, &provider.LookupError{Symbol: symbol, Err: provider.ErrNotFound}
	}
	return r, nil
}

func newFake() *fakeProvider {
	return &fakeProvider{
		records: map[string]*models.QuoteRecord{
			"AAPL":    {Symbol: "AAPL", QuoteType: "equity", RegularMarketPrice: models.Float(190.0), MarketCap: models.Float(3_000_000_000_000)},
			"SPYD":    {Symbol: "SPYD", QuoteType: "etf", RegularMarketPrice: models.Float(40.0)},
			"MSFT":    {Symbol: "MSFT", QuoteType: "EQUITY", RegularMarketPrice: models.Float(410.5)},
			"0050.TW": {Symbol: "0050.TW", QuoteType: "INDEX", RegularMarketPrice: models.Float(150), FundFamily: models.String("Yuanta"), MarketCap: models.Float(1e12)},
		},
		calls: make(map[string]int),
	}
}

var runDay = time.Date(2024, 8, 24, 15, 30, 0, 0, time.UTC)

func newTestEnricher(p provider.Provider, verbose bool) (*Enricher, *bytes.Buffer) {
	var buf bytes.Buffer
	e := NewEnricher(utils.NewConsoleLogger(&buf, verbose), p)
	e.now = func() time.Time { return runDay }
	return e, &buf
}

func newBook(t *testing.T, symbols ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue("Sheet1", "A1", "Symbol")
	f.SetCellValue("Sheet1", "B1", "Shares")
	for i, s := range symbols {
		f.SetCellValue("Sheet1", "A"+strconv.Itoa(i+2), s)
		f.SetCellValue("Sheet1", "B"+strconv.Itoa(i+2), i+1)
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func raw(t *testing.T, path, ref string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	v, err := f.GetCellValue("Sheet1", ref, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue(%s): %v", ref, err)
	}
	return v
}

func TestRunEndToEnd(t *testing.T) {
	path := newBook(t, "AAPL", "SPYD")
	e, _ := newTestEnricher(newFake(), true)

	result, err := e.Run(context.Background(), path, "Sheet1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Prices["AAPL"] != 190 || result.Prices["SPYD"] != 40 {
		t.Errorf("prices = %v", result.Prices)
	}
	if result.MarketCaps["AAPL"] != 3 {
		t.Errorf("AAPL market cap = %v, want 3", result.MarketCaps["AAPL"])
	}
	if _, ok := result.MarketCaps["SPYD"]; ok {
		t.Error("SPYD is an ETF and must have no market cap")
	}
	if !result.Write.Inserted {
		t.Error("Shares column is occupied, columns should be inserted")
	}

	want := map[string]string{
		"B1": "2024-08-24_Close", "C1": "2024-08-24_MarketCap(T)", "D1": "Shares",
		"B2": "190", "C2": "3", "D2": "1",
		"B3": "40", "C3": "", "D3": "2",
	}
	for ref, w := range want {
		if got := raw(t, path, ref); got != w {
			t.Errorf("%s = %q, want %q", ref, got, w)
		}
	}
}

func TestRunLookupFailureLeavesBlankCells(t *testing.T) {
	path := newBook(t, "AAPL", "NOPE", "SPYD")
	e, buf := newTestEnricher(newFake(), false)

	result, err := e.Run(context.Background(), path, "Sheet1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if raw(t, path, "B3") != "" || raw(t, path, "C3") != "" {
		t.Error("failed symbol must leave both cells blank")
	}
	if raw(t, path, "B4") != "40" {
		t.Error("processing must continue after a failed symbol")
	}

	if got := result.Outcomes[1]; got.Status != models.StatusLookupFailed || got.Err == nil {
		t.Errorf("NOPE outcome = %+v", got)
	}
	if !strings.Contains(buf.String(), "Error processing NOPE") {
		t.Errorf("failure not logged: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "Looked up 3 symbols, 1 failed") {
		t.Errorf("lookup totals not logged: %s", buf.String())
	}
	if strings.Contains(buf.String(), "Successfully fetched") {
		t.Errorf("progress lines printed with verbose off: %s", buf.String())
	}
}

func TestLookupOneCallPerSymbol(t *testing.T) {
	fake := newFake()
	path := newBook(t, "AAPL", "SPYD", "AAPL", " MSFT ")
	e, _ := newTestEnricher(fake, true)

	result, err := e.Run(context.Background(), path, "Sheet1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for s, n := range fake.calls {
		if n != 1 {
			t.Errorf("%s looked up %d times", s, n)
		}
	}
	if len(result.Outcomes) != 3 {
		t.Errorf("outcomes = %d, want 3", len(result.Outcomes))
	}
	// Both AAPL rows receive the value.
	if raw(t, path, "B2") != "190" || raw(t, path, "B4") != "190" {
		t.Error("duplicate symbol rows not both written")
	}
}

func TestLookupStatuses(t *testing.T) {
	e, buf := newTestEnricher(newFake(), true)

	_, caps, outcomes := e.Lookup(context.Background(), []string{"MSFT", "0050.TW", "SPYD"})

	if outcomes[0].Status != models.StatusCapMissing {
		t.Errorf("MSFT status = %q, want %q", outcomes[0].Status, models.StatusCapMissing)
	}
	if outcomes[1].Status != models.StatusCapSkipped {
		t.Errorf("0050.TW status = %q, want %q", outcomes[1].Status, models.StatusCapSkipped)
	}
	if len(caps) != 0 {
		t.Errorf("caps = %v, want none", caps)
	}
	out := buf.String()
	for _, want := range []string{
		"Failed to fetch MSFT market cap",
		"Skipping market cap for SPYD (Asset Type: etf)",
		"Successfully fetched MSFT price: $410.50",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestRunCancelledDoesNotWrite(t *testing.T) {
	path := newBook(t, "AAPL")
	e, _ := newTestEnricher(newFake(), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Run(ctx, path, "Sheet1"); err == nil {
		t.Fatal("expected context error")
	}
	if raw(t, path, "B1") != "Shares" {
		t.Error("workbook written after cancellation")
	}
}

func TestPreflightCheck(t *testing.T) {
	path := newBook(t, "AAPL")
	e, _ := newTestEnricher(newFake(), false)

	if err := e.PreflightCheck(context.Background(), path); err != nil {
		t.Errorf("PreflightCheck: %v", err)
	}
	if err := e.PreflightCheck(context.Background(), path+".missing"); err == nil {
		t.Error("expected missing workbook to fail preflight")
	}
}

func TestSummary(t *testing.T) {
	result := &models.RunResult{
		Date:       runDay,
		Prices:     models.PriceResults{"AAPL": 190},
		MarketCaps: models.MarketCapResults{"AAPL": 3},
		Outcomes: []models.SymbolOutcome{
			{Symbol: "AAPL", QuoteType: "equity", Status: models.StatusFetched, Price: models.Float(190), MarketCapT: models.Float(3)},
			{Symbol: "NOPE", Status: models.StatusLookupFailed, Err: provider.ErrNotFound},
		},
		Write: &models.WriteReport{CloseColumn: 2, MarketCapColumn: 3, RowsWritten: 1},
	}

	md := Summary(result)
	for _, want := range []string{
		"| Symbol | Type | 2024-08-24_Close | 2024-08-24_MarketCap(T) | Status |",
		"| AAPL | equity | 190.00 | 3 | fetched |",
		"| NOPE |  |  |  | lookup failed: symbol not found |",
		"2 symbols, 1 prices, 1 market caps, 1 failed.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}

	out, err := RenderSummary(result, "notty")
	if err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	if !strings.Contains(out, "AAPL") {
		t.Errorf("rendered summary missing AAPL: %s", out)
	}
}
