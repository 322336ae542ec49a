package database

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"cosmetic-insights/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()

	client := &PostgresClient{DB: db}
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_Migrate(t *testing.T) {
	t.Run("applies statements in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS a").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS b").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		client := &PostgresClient{DB: db}
		require.NoError(t, client.Migrate(context.Background(),
			"CREATE TABLE IF NOT EXISTS a (id int)",
			"CREATE INDEX IF NOT EXISTS b ON a (id)",
		))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		client := &PostgresClient{DB: db}
		err = client.Migrate(context.Background(), "CREATE TABLE a (id int)")
		assert.ErrorContains(t, err, "permission denied")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewPostgres_DoesNotDial(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "127.0.0.1", Port: 1, User: "u", Database: "d", SSLMode: "disable", MaxConnections: 2, MaxIdle: 1,
	})
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func esResponse(status int) *http.Response {
	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(strings.NewReader("{}"))}
}

func TestElasticsearchClient_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es, err := elasticsearch.NewClient(elasticsearch.Config{
				Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					return esResponse(tt.status), nil
				}),
			})
			require.NoError(t, err)

			err = (&ElasticsearchClient{Client: es}).Ping(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestElasticsearchClient_EnsureIndex(t *testing.T) {
	tests := []struct {
		name        string
		existsCode  int
		createCode  int
		wantCreated bool
		wantCreate  bool
		wantErr     bool
	}{
		{"already exists", http.StatusOK, 0, false, false, false},
		{"missing is created", http.StatusNotFound, http.StatusOK, true, true, false},
		{"create rejected", http.StatusNotFound, http.StatusBadRequest, false, true, true},
		{"cluster error", http.StatusInternalServerError, 0, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var createBody string
			created := false
			es, err := elasticsearch.NewClient(elasticsearch.Config{
				MaxRetries: 1,
				Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
					switch r.Method {
					case http.MethodHead:
						return esResponse(tt.existsCode), nil
					case http.MethodPut:
						created = true
						b, _ := io.ReadAll(r.Body)
						createBody = string(b)
						return esResponse(tt.createCode), nil
					}
					return esResponse(http.StatusMethodNotAllowed), nil
				}),
			})
			require.NoError(t, err)

			ok, err := (&ElasticsearchClient{Client: es}).EnsureIndex(context.Background(), "reviews", `{"mappings":{}}`)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCreated, ok)
			assert.Equal(t, tt.wantCreate, created)
			if tt.wantCreate {
				assert.JSONEq(t, `{"mappings":{}}`, createBody)
			}
		})
	}
}
