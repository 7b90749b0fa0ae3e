package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	city := CityQuery("Paris")
	assert.True(t, city.IsCity())
	assert.Equal(t, "Paris", city.String())

	coords := CoordinatesQuery(48.8566, 2.3522)
	assert.False(t, coords.IsCity())
	assert.Equal(t, "48.8566,2.3522", coords.String())
}

func TestCurrentWeatherResponse_Decode(t *testing.T) {
	body := `{"name":"London","main":{"temp":15.2,"humidity":65},"wind":{"speed":4.1},"weather":[{"id":500,"description":"light rain","icon":"10d"}]}`

	var resp CurrentWeatherResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "London", resp.Name)
	assert.Equal(t, 65, resp.Main.Humidity)
	assert.Equal(t, 4.1, resp.Wind.Speed)
	assert.Equal(t, "10d", resp.ConditionCode())
}

func TestConditionCode_Empty(t *testing.T) {
	assert.Equal(t, "", (&CurrentWeatherResponse{}).ConditionCode())
	assert.Equal(t, "", ForecastEntry{}.ConditionCode())
}

func TestForecastEntry_IsMidday(t *testing.T) {
	assert.True(t, ForecastEntry{DtTxt: "2024-05-01 12:00:00"}.IsMidday())
	assert.False(t, ForecastEntry{DtTxt: "2024-05-01 15:00:00"}.IsMidday())
	assert.False(t, ForecastEntry{}.IsMidday())
}

func TestResponseEnvelopes(t *testing.T) {
	ok, err := json.Marshal(SuccessResponse(map[string]int{"n": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"n":1},"message":"Success"}`, string(ok))

	failed, err := json.Marshal(ErrorResponse("Error", "city not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"city not found","message":"Error"}`, string(failed))
}
