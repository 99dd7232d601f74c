package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmatrace/gateway/internal/models"
)

func newClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(HTTPClientConfig{
		BaseURL: baseURL,
		Timeout: time.Second,
		Retries: 1,
	})
	require.NoError(t, err)
	return c
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPClientConfig{})
	assert.Error(t, err)
}

func TestGetWorker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contract/workers/3", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":   3,
			"name": "Dana",
			"role": "TRANSPORTER",
		})
	}))
	defer srv.Close()

	w, err := newClient(t, srv.URL).GetWorker(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Dana", w.Name)
	assert.Equal(t, "TRANSPORTER", w.Role.String())
}

func TestGetWorkerUnregisteredSlot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Contract mappings return zero values for slots never written.
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 9, "name": ""})
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).GetWorker(context.Background(), 9)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetWorkerNotFoundNoRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).GetWorker(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{{"id": 0, "name": "Ana"}})
	}))
	defer srv.Close()

	workers, err := newClient(t, srv.URL).ListWorkers(context.Background())
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetJSONUnavailableAfterRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).ListWorkers(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetJSONTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newClient(t, srv.URL).ListWorkers(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestProductCountEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contract/products/count", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]int{"count": 7})
	}))
	defer srv.Close()

	n, err := newClient(t, srv.URL).ProductCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestProductCountScanFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contract/products/count":
			// Older node build without the counter route.
			w.WriteHeader(http.StatusNotFound)
		case "/contract/products/0", "/contract/products/1":
			json.NewEncoder(w).Encode(map[string]interface{}{"id": 0, "name": "Aspirin"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	n, err := newClient(t, srv.URL).ProductCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProductHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contract/products/4/history", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"location": "Dock 2", "temperature": 5.5, "humidity": 40, "workerId": 1, "productId": 4, "quantity": 10, "qualityMaintained": true, "timestamp": 1700000000},
		})
	}))
	defer srv.Close()

	history, err := newClient(t, srv.URL).ProductHistory(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Dock 2", history[0].Location)
	assert.Equal(t, 5.5, history[0].Temperature)
}

func TestRegisterWorkerSubmitsOnce(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/contract/workers", r.URL.Path)

		var in WorkerInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Dana", in.Name)

		json.NewEncoder(w).Encode(TxResult{TxHash: "0xabc", AssignedID: 12})
	}))
	defer srv.Close()

	res, err := newClient(t, srv.URL).RegisterWorker(context.Background(), WorkerInput{Name: "Dana", Role: models.RoleTransporter})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", res.TxHash)
	assert.Equal(t, 12, res.AssignedID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSubmitDoesNotRetryServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).RegisterWorker(context.Background(), WorkerInput{Name: "Dana"})
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSubmitRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"quantity must be positive"}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).RegisterProduct(context.Background(), ProductInput{Name: "Aspirin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity must be positive")
	assert.False(t, errors.Is(err, ErrUnavailable))
}
