package provider

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"

	"sheetquote/models"
)

// quoteSummaryModules are requested together so one call per symbol carries
// price, type, market cap and fund family.
const quoteSummaryModules = "price,quoteType,defaultKeyStatistics,fundProfile"

// decodeQuoteSummary turns a Yahoo quoteSummary body into a record. Fields
// missing from the body stay nil.
func decodeQuoteSummary(symbol string, body []byte) (*models.QuoteRecord, error) {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, lookupErr(symbol, "malformed response: %w", err)
	}

	if desc, ok := str(jobj, "$.quoteSummary.error.description"); ok {
		return nil, lookupErr(symbol, "%w: %s", ErrNotFound, desc)
	}
	if code, ok := str(jobj, "$.finance.error.code"); ok {
		return nil, lookupErr(symbol, "provider error: %s", code)
	}

	result, ok := get(jobj, "$.quoteSummary.result[0]")
	if !ok {
		return nil, lookupErr(symbol, "%w: empty result", ErrNotFound)
	}

	record := &models.QuoteRecord{Symbol: symbol}
	if s, ok := first(result, str, "$.price.symbol", "$.quoteType.symbol"); ok {
		record.Symbol = s
	}
	record.QuoteType, _ = first(result, str, "$.quoteType.quoteType", "$.price.quoteType")
	record.Currency, _ = str(result, "$.price.currency")
	if v, ok := num(result, "$.price.regularMarketPrice"); ok {
		record.RegularMarketPrice = &v
	}
	if v, ok := num(result, "$.price.marketCap"); ok {
		record.MarketCap = &v
	}
	if s, ok := first(result, str, "$.defaultKeyStatistics.fundFamily", "$.fundProfile.family"); ok {
		record.FundFamily = &s
	}
	return record, nil
}

// get evaluates path and reports false for errors and JSON nulls.
func get(jobj any, path string) (any, bool) {
	v, err := jsonpath.Get(path, jobj)
	if err != nil || v == nil {
		return nil, false
	}
	// jsonpath returns a list for some expressions; keep the first answer.
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, false
		}
		v = list[0]
	}
	return v, v != nil
}

func str(jobj any, path string) (string, bool) {
	v, ok := get(jobj, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// num accepts both plain numbers and Yahoo's {"raw": n, "fmt": "..."} form.
func num(jobj any, path string) (float64, bool) {
	v, ok := get(jobj, path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case map[string]any:
		raw, ok := n["raw"].(float64)
		return raw, ok
	case string:
		var f float64
		_, err := fmt.Sscan(n, &f)
		return f, err == nil
	}
	return 0, false
}

func first[T any](jobj any, fn func(any, string) (T, bool), paths ...string) (T, bool) {
	for _, p := range paths {
		if v, ok := fn(jobj, p); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
