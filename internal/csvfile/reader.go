// Package csvfile parses the semicolon-delimited export files produced by
// exchanges (trade history) and by earlier versions of this tool (PnL
// history).
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// Column order of a trade history export. There is no header row.
const (
	colDate = iota
	colPair
	colSide
	colPrice
	colQty
	colTotal
	colFee
	colFeeAsset
	tradeColumns
)

// timeLayout is the timestamp format used by the exchange exports.
const timeLayout = "2006-01-02 15:04:05"

// ReadTrades parses a semicolon-delimited trade history. Every row is
// strictly validated; a malformed row fails the whole file with the row
// number attached rather than being coerced or skipped.
func ReadTrades(r io.Reader) ([]domain.Trade, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = tradeColumns

	var trades []domain.Trade
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csvfile: row %d: %w", line, err)
		}

		trade, err := parseTradeRow(record)
		if err != nil {
			return nil, fmt.Errorf("csvfile: row %d: %w", line, err)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func parseTradeRow(record []string) (domain.Trade, error) {
	ts, err := time.Parse(timeLayout, record[colDate])
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse timestamp %q: %w", record[colDate], err)
	}

	side := domain.Side(record[colSide])

	price, err := decimal.NewFromString(record[colPrice])
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse price %q: %w", record[colPrice], err)
	}
	qty, err := decimal.NewFromString(record[colQty])
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse quantity %q: %w", record[colQty], err)
	}
	total, err := decimal.NewFromString(record[colTotal])
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse total %q: %w", record[colTotal], err)
	}
	fee, err := decimal.NewFromString(record[colFee])
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse fee %q: %w", record[colFee], err)
	}

	trade := domain.NewTrade(record[colPair], side, qty, price, total, ts, fee, record[colFeeAsset], "", domain.OriginBinance)
	if err := trade.Validate(); err != nil {
		return domain.Trade{}, err
	}
	return trade, nil
}

// ReadPnL parses a semicolon-delimited PnL history with columns
// date;asset;value;currency. Unlike the trade export this format carries a
// header row, which is skipped.
func ReadPnL(r io.Reader) ([]domain.PnLEvent, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 4

	var events []domain.PnLEvent
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csvfile: row %d: %w", line, err)
		}
		if line == 1 {
			continue // header
		}

		ts, err := time.Parse(timeLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("csvfile: row %d: parse timestamp %q: %w", line, record[0], err)
		}
		value, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("csvfile: row %d: parse value %q: %w", line, record[2], err)
		}
		events = append(events, domain.PnLEvent{
			Timestamp: ts,
			Asset:     record[1],
			Value:     value,
			Currency:  record[3],
		})
	}
	return events, nil
}
