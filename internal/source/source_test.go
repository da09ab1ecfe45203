package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/t77yq/alert-dashboard/internal/model"
	"github.com/t77yq/alert-dashboard/internal/store"
	"github.com/t77yq/alert-dashboard/internal/testutil"
)

func decodeIDs(t *testing.T, records []json.RawMessage) []string {
	t.Helper()
	ids := make([]string, 0, len(records))
	for _, r := range records {
		var a model.Alert
		require.NoError(t, json.Unmarshal(r, &a))
		ids = append(ids, a.ID)
	}
	return ids
}

func TestFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads array", func(t *testing.T) {
		path := filepath.Join(dir, "alerts.json")
		data, err := json.Marshal(testutil.ScenarioAlerts())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o644))

		src := NewFile(path)
		assert.Equal(t, "file:"+path, src.Name())

		records, err := src.Records(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, decodeIDs(t, records))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFile(filepath.Join(dir, "nope.json")).Records(context.Background())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"id":"1"}`), 0o644))

		_, err := NewFile(path).Records(context.Background())
		require.Error(t, err)
	})
}

func insertAlert(t *testing.T, db *sql.DB, a model.Alert, metadata string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO alerts (id, subject, timestamp, severity, title, message, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Subject, a.Timestamp, string(a.Severity), a.Title, a.Message,
		sql.NullString{String: metadata, Valid: metadata != ""})
	require.NoError(t, err)
}

func TestSQLite(t *testing.T) {
	logger := zaptest.NewLogger(t)
	dbPath := filepath.Join(t.TempDir(), "alerts.db")

	src, err := NewSQLite(logger, dbPath)
	require.NoError(t, err)
	defer src.Close()

	alerts := testutil.ScenarioAlerts()
	insertAlert(t, src.db, alerts[1], `{"region":"eu"}`)
	insertAlert(t, src.db, alerts[0], "{}")
	broken := testutil.NewAlert("3", "cache", "2024-02-01", model.AlertSeverityCritical)
	insertAlert(t, src.db, broken, `{not json`)
	bare := testutil.NewAlert("4", "cache", "2024-02-02", model.AlertSeverityLow)
	insertAlert(t, src.db, bare, "")

	records, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3", "4"}, decodeIDsLenient(t, records))

	s, report, err := store.Load(context.Background(), src, store.LoadOptions{Logger: logger})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "2", s.Entries()[0].Alert.ID)
	assert.Equal(t, "eu", s.Entries()[0].Alert.Metadata["region"])
	assert.Empty(t, s.Entries()[1].Alert.Metadata)
	require.Len(t, report.Rejected, 2)
	assert.Equal(t, "3", report.Rejected[0].ID)
	assert.Equal(t, "4", report.Rejected[1].ID)
}

// decodeIDsLenient reads only the id so rows with bad metadata still count
func decodeIDsLenient(t *testing.T, records []json.RawMessage) []string {
	t.Helper()
	ids := make([]string, 0, len(records))
	for _, r := range records {
		var probe struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(r, &probe))
		ids = append(ids, probe.ID)
	}
	return ids
}

func TestJetStream(t *testing.T) {
	logger := zaptest.NewLogger(t)
	_, js, cleanup := testutil.StartJetStream(t)
	defer cleanup()

	t.Run("missing stream", func(t *testing.T) {
		src := NewJetStream(js, JetStreamConfig{Stream: "NOPE", Subject: "nope.>"}, logger)
		records, err := src.Records(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	_, err := js.AddStream(&nats.StreamConfig{
		Name:     "ALERTS",
		Subjects: []string{"alerts.>"},
		Storage:  nats.MemoryStorage,
	})
	require.NoError(t, err)

	src := NewJetStream(js, JetStreamConfig{MaxWait: 2 * time.Second}, logger)
	assert.Equal(t, "jetstream:ALERTS", src.Name())

	t.Run("empty stream", func(t *testing.T) {
		records, err := src.Records(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	alerts := testutil.ScenarioAlerts()
	testutil.PublishJSON(t, js, "alerts.AA", alerts[0])
	testutil.PublishJSON(t, js, "alerts.BB", alerts[1])
	third := testutil.NewAlert("3", "AA", "2023-12-31T23:59:59Z", model.AlertSeverityMedium)
	testutil.PublishJSON(t, js, "alerts.AA", third)

	t.Run("replays in order", func(t *testing.T) {
		records, err := src.Records(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3"}, decodeIDs(t, records))
	})

	t.Run("replay is repeatable", func(t *testing.T) {
		s, report, err := store.Load(context.Background(), src, store.LoadOptions{Logger: logger})
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, 3, report.Loaded)
	})

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     "MIXED",
		Subjects: []string{"mixed.alerts.>", "mixed.audit.>"},
		Storage:  nats.MemoryStorage,
	})
	require.NoError(t, err)
	testutil.PublishJSON(t, js, "mixed.audit.x", map[string]string{"event": "login"})

	mixed := NewJetStream(js, JetStreamConfig{
		Stream:  "MIXED",
		Subject: "mixed.alerts.>",
		MaxWait: 2 * time.Second,
	}, logger)

	t.Run("no message matches subject", func(t *testing.T) {
		start := time.Now()
		records, err := mixed.Records(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("only matching messages replayed", func(t *testing.T) {
		testutil.PublishJSON(t, js, "mixed.alerts.AA", alerts[0])
		testutil.PublishJSON(t, js, "mixed.audit.y", map[string]string{"event": "logout"})

		records, err := mixed.Records(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, decodeIDs(t, records))
	})
}
