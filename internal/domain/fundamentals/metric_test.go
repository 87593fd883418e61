package fundamentals

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricJSON(t *testing.T) {
	payload := struct {
		Price   Metric `json:"price"`
		Missing Metric `json:"missing"`
		Growth  Metric `json:"growth"`
	}{
		Price:   FromFloat(2931.456789),
		Missing: Missing(),
		Growth:  FromFloat(12.3456).WithPlaces(2),
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":2931.4568,"missing":"N/A","growth":12.35}`, string(raw))

	var back struct {
		Price   Metric `json:"price"`
		Missing Metric `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Price.Valid)
	assert.True(t, back.Price.Value.Equal(decimal.RequireFromString("2931.4568")))
	assert.False(t, back.Missing.Valid)
}

func TestPctChange(t *testing.T) {
	assert.Equal(t, "25", PctChange(FromFloat(125), FromFloat(100)).String())
	assert.Equal(t, "-150", PctChange(FromFloat(-50), FromFloat(100)).String())
	assert.Equal(t, "300", PctChange(FromFloat(50), FromFloat(-25)).String(), "previous is taken as absolute")
	assert.Equal(t, "N/A", PctChange(FromFloat(10), FromFloat(0)).String())
	assert.Equal(t, "N/A", PctChange(FromFloat(10), Missing()).String())
	assert.Equal(t, "33.33", PctChange(FromFloat(4), FromFloat(3)).String())
}

func TestStatementLatestAndPrevious(t *testing.T) {
	s := Statement{
		{TotalRevenue: Missing(), NetIncome: FromFloat(5)},
		{TotalRevenue: FromFloat(200)},
		{TotalRevenue: FromFloat(150), NetIncome: FromFloat(4)},
	}

	latest, prev := s.LatestAndPrevious(TotalRevenue)
	assert.Equal(t, "200", latest.String())
	assert.Equal(t, "150", prev.String())

	latest, prev = s.LatestAndPrevious(OperatingIncome)
	assert.False(t, latest.Valid)
	assert.False(t, prev.Valid)

	assert.Equal(t, "5", s.Latest(NetIncome).String())
}

func TestProfileUsable(t *testing.T) {
	var nilProfile *Profile
	assert.False(t, nilProfile.Usable())
	assert.False(t, (&Profile{}).Usable())
	assert.True(t, (&Profile{ShortName: "Reliance"}).Usable())
	assert.True(t, (&Profile{MarketPrice: FromFloat(1)}).Usable())
}
