package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfolio/moonfolio/internal/domain"
)

type fakeSender struct {
	name     string
	err      error
	subjects []string
}

func (s *fakeSender) Send(_ context.Context, subject, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.subjects = append(s.subjects, subject)
	return nil
}

func (s *fakeSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyAllEventsWhenUnfiltered(t *testing.T) {
	sender := &fakeSender{name: "mail"}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	require.NoError(t, n.Notify(context.Background(), EventImportDone, "done", "<p>ok</p>"))
	require.NoError(t, n.Notify(context.Background(), EventImportFailed, "failed", "<p>ko</p>"))
	assert.Equal(t, []string{"done", "failed"}, sender.subjects)
}

func TestNotifyFiltersEvents(t *testing.T) {
	sender := &fakeSender{name: "mail"}
	n := NewNotifier([]Sender{sender}, []string{EventImportFailed}, testLogger())

	require.NoError(t, n.Notify(context.Background(), EventImportDone, "done", ""))
	assert.Empty(t, sender.subjects, "filtered event must not reach senders")

	require.NoError(t, n.Notify(context.Background(), EventImportFailed, "failed", ""))
	assert.Equal(t, []string{"failed"}, sender.subjects)
}

func TestNotifyOneFailingSenderDoesNotBlockOthers(t *testing.T) {
	bad := &fakeSender{name: "mail", err: errors.New("smtp timeout")}
	good := &fakeSender{name: "fallback"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), EventImportDone, "done", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail")
	assert.Equal(t, []string{"done"}, good.subjects)
}

func TestNotifyNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	assert.NoError(t, n.Notify(context.Background(), EventImportDone, "done", ""))
}

func TestPositionsHTML(t *testing.T) {
	positions := map[string]domain.Position{
		"ETH": {
			Quantity:    decimal.RequireFromString("5"),
			AverageCost: decimal.RequireFromString("1234.5678"),
			Currency:    "EUR",
		},
		"BTC": {
			Quantity:    decimal.RequireFromString("0.25"),
			AverageCost: decimal.RequireFromString("30000"),
			Currency:    "EUR",
		},
	}

	html := PositionsHTML(positions)

	// Rows in symbol order, values rounded to 2 decimals.
	btcRow := strings.Index(html, "<td>BTC</td>")
	ethRow := strings.Index(html, "<td>ETH</td>")
	require.Positive(t, btcRow)
	require.Positive(t, ethRow)
	assert.Less(t, btcRow, ethRow)

	assert.Contains(t, html, "<td>1234.57</td>")
	assert.Contains(t, html, "<td>7500</td>") // 0.25 * 30000
	assert.Contains(t, html, "<td>6172.84</td>")
}
