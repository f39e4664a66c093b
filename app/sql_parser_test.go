package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelectStar(t *testing.T) {
	q, err := ParseSelect("SELECT * FROM apples")
	require.NoError(t, err)
	assert.True(t, q.Star)
	assert.Equal(t, "apples", q.Table)
	assert.Empty(t, q.Where)
}

func TestParseSelectCountStarTreatsAnyArgAsStar(t *testing.T) {
	q, err := ParseSelect("SELECT COUNT(id) FROM apples")
	require.NoError(t, err)
	assert.True(t, q.CountStar)
}

func TestParseSelectColumnList(t *testing.T) {
	q, err := ParseSelect("SELECT name, color FROM apples")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "color"}, q.Columns)
}

func TestParseSelectWhereSingleCond(t *testing.T) {
	q, err := ParseSelect("SELECT id, name FROM apples WHERE color = 'Yellow'")
	require.NoError(t, err)
	require.Len(t, q.Where, 1)
	assert.Equal(t, "color", q.Where[0].Column)
	assert.Equal(t, "Yellow", q.Where[0].Literal)
}

func TestParseSelectWhereMultipleCondsJuxtaposed(t *testing.T) {
	q, err := ParseSelect("SELECT * FROM apples WHERE color = 'Red' name = 'Fuji'")
	require.NoError(t, err)
	require.Len(t, q.Where, 2)
	assert.Equal(t, "color", q.Where[0].Column)
	assert.Equal(t, "name", q.Where[1].Column)
}

func TestParseSelectIsCaseInsensitiveOnKeywords(t *testing.T) {
	q, err := ParseSelect("select * from apples where color = 'Red'")
	require.NoError(t, err)
	assert.Equal(t, "apples", q.Table)
}

func TestParseSelectNumericLiteral(t *testing.T) {
	q, err := ParseSelect("SELECT * FROM apples WHERE id = 4")
	require.NoError(t, err)
	require.Len(t, q.Where, 1)
	assert.Equal(t, "4", q.Where[0].Literal)
}

func TestParseSelectRejectsTrailingGarbage(t *testing.T) {
	_, err := ParseSelect("SELECT * FROM apples JOIN oranges")
	require.Error(t, err)
}

func TestParseSelectRequiresFrom(t *testing.T) {
	_, err := ParseSelect("SELECT *")
	require.Error(t, err)
}
