package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/models"
)

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.Quantity
	}{
		{name: "integer", raw: `7`, want: 7},
		{name: "numeric string", raw: `"4"`, want: 4},
		{name: "padded string", raw: `" 5 "`, want: 5},
		{name: "float string truncates", raw: `"2.7"`, want: 2},
		{name: "float truncates", raw: `3.9`, want: 3},
		{name: "negative clamps", raw: `-3`, want: 0},
		{name: "non numeric string", raw: `"abc"`, want: 0},
		{name: "null", raw: `null`, want: 0},
		{name: "boolean", raw: `true`, want: 0},
		{name: "not a number", raw: `"NaN"`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cell models.StockCell
			err := json.Unmarshal([]byte(`{"quantity":`+tt.raw+`}`), &cell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cell.Quantity)
		})
	}
}

func TestQuantity_UnmarshalBSONValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  models.Quantity
	}{
		{name: "int32", value: int32(6), want: 6},
		{name: "int64", value: int64(12), want: 12},
		{name: "double", value: 2.7, want: 2},
		{name: "numeric string", value: "3", want: 3},
		{name: "padded string", value: " 8 ", want: 8},
		{name: "negative clamps", value: int32(-4), want: 0},
		{name: "garbage string", value: "abc", want: 0},
		{name: "null", value: nil, want: 0},
		{name: "boolean", value: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(bson.M{"quantity": tt.value, "codename": "c1"})
			require.NoError(t, err)

			var cell models.StockCell
			require.NoError(t, bson.Unmarshal(data, &cell))
			assert.Equal(t, tt.want, cell.Quantity)
			assert.Equal(t, "c1", cell.Codename)
		})
	}
}

func TestStockDetails_RoundTripsThroughBSON(t *testing.T) {
	details := models.StockDetails{}
	details.SetQuantity("M", "Red", 4)

	data, err := bson.Marshal(bson.M{"stockDetails": details})
	require.NoError(t, err)

	var out struct {
		StockDetails models.StockDetails `bson:"stockDetails"`
	}
	require.NoError(t, bson.Unmarshal(data, &out))
	cell, ok := out.StockDetails.Cell("M", "Red")
	require.True(t, ok)
	assert.Equal(t, models.Quantity(4), cell.Quantity)
}
