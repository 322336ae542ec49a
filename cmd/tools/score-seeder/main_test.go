package main

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmetic-insights/internal/common/database"
	"cosmetic-insights/internal/sources/ingredientdb"
)

func TestDefaultScoreFile_Parses(t *testing.T) {
	entries, err := ingredientdb.LoadScoreFile("../../../" + defaultScoreFile)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	for _, e := range entries {
		assert.NotEmpty(t, e.Name)
		assert.GreaterOrEqual(t, e.Score, 0.0)
		assert.LessOrEqual(t, e.Score, 10.0)
	}
}

func TestSeed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS ingredient_scores")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ingredient_scores")).
		WithArgs("sodium laureth sulfate", 5.0, `["skin irritation"]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ingredient_scores")).
		WithArgs("water", 10.0, `[]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := seed(context.Background(), &database.PostgresClient{DB: db}, []ingredientdb.ScoreEntry{
		{Name: "Sodium Laureth Sulfate", Score: 5, Hazards: []string{"skin irritation"}},
		{Name: " Water ", Score: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
