package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)

	opt, err := ParseOptionalDate("  ")
	require.NoError(t, err)
	assert.Nil(t, opt)
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		DueBack *Date `json:"due_back"`
	}

	due := NewDate(2024, 1, 15)
	data, err := json.Marshal(payload{DueBack: &due})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due_back":"2024-01-15"}`, string(data))

	data, err = json.Marshal(payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due_back":null}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"due_back":"2023-12-31"}`), &decoded))
	require.NotNil(t, decoded.DueBack)
	assert.Equal(t, "2023-12-31", decoded.DueBack.String())

	assert.Error(t, json.Unmarshal([]byte(`{"due_back":"soon"}`), &decoded))
}

func TestDate_Scan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan("2024-06-01"))
	assert.Equal(t, "2024-06-01", d.String())

	require.NoError(t, d.Scan([]byte("2024-06-02")))
	assert.Equal(t, "2024-06-02", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-06-03", d.String())

	require.NoError(t, d.Scan("2024-06-04 00:00:00+00:00"))
	assert.Equal(t, "2024-06-04", d.String())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, 6, 5).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-05", v)
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2024, 2, 28)
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2024-02-21", d.AddDays(-7).String())
	assert.True(t, d.IsBefore(d.AddDays(1)))
	assert.False(t, d.IsBefore(d))
}
