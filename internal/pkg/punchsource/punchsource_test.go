package punchsource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	from = utils.Date(2025, 3, 9)
	to   = utils.Date(2025, 3, 10)
)

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2025-03-09", r.URL.Query().Get("from"))
		assert.Equal(t, "2025-03-10", r.URL.Query().Get("to"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]attendance.SourceRow{
			{ExternalUserID: "101", LogDate: "2025-03-10", LogTime: "08:00:00", Direction: "in"},
		})
	}))
	defer srv.Close()

	rows, err := NewHTTPSource(srv.URL+"/logs", "secret", srv.Client()).Fetch(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "101", rows[0].ExternalUserID)
	assert.Equal(t, "in", rows[0].Direction)
}

func TestHTTPSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, "", nil).Fetch(context.Background(), from, to)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "device offline")
}

func TestHTTPSource_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewHTTPSource(srv.URL, "", nil).Fetch(ctx, from, to)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSQLiteSource_Fetch(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE punch_logs (user_id TEXT, log_date TEXT, log_time TEXT, direction TEXT);
		INSERT INTO punch_logs VALUES
			('101', '2025-03-08', '08:00:00', 'in'),
			('101', '2025-03-10', '17:00:00', 'out'),
			('101', '2025-03-10', '08:00:00', 'in'),
			('102', '2025-03-09', '09:00:00', '0');
	`)
	require.NoError(t, err)

	rows, err := NewSQLiteSource(db).Fetch(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, attendance.SourceRow{ExternalUserID: "102", LogDate: "2025-03-09", LogTime: "09:00:00", Direction: "0"}, rows[0])
	assert.Equal(t, "08:00:00", rows[1].LogTime)
	assert.Equal(t, "17:00:00", rows[2].LogTime)
}
