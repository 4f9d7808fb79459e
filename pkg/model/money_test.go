package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"gopkg.in/yaml.v3"
)

func TestMoney_RoundedHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10.004", "10.00"},
		{"0.125", "0.13"},
		{"30", "30.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MustMoney(tt.in).Rounded().String())
		})
	}
}

func TestMoney_ArithmeticIsExact(t *testing.T) {
	total := ZeroMoney
	for i := 0; i < 10; i++ {
		total = total.Add(MustMoney("0.10"))
	}

	assert.True(t, total.Equal(MustMoney("1.00")))
	assert.Equal(t, "30.00", MustMoney("10").MulInt(3).String())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{MustMoney("30")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"30.00"}`, string(data))

	var fromString, fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`"12.50"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &fromNumber))
	assert.True(t, fromString.Equal(fromNumber))

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"twelve"`), &bad))
}

func TestMoney_BSONDecimal128(t *testing.T) {
	type doc struct {
		Rate Money `bson:"rate"`
	}
	data, err := bson.Marshal(doc{Rate: MustMoney("19.99")})
	require.NoError(t, err)

	raw := bson.Raw(data)
	assert.Equal(t, bsontype.Decimal128, raw.Lookup("rate").Type)

	var out doc
	require.NoError(t, bson.Unmarshal(data, &out))
	assert.Equal(t, "19.99", out.Rate.String())
}

func TestMoney_BSONLegacyNumbers(t *testing.T) {
	type doc struct {
		Rate Money `bson:"rate"`
	}
	data, err := bson.Marshal(bson.M{"rate": 15.5})
	require.NoError(t, err)

	var out doc
	require.NoError(t, bson.Unmarshal(data, &out))
	assert.Equal(t, "15.50", out.Rate.String())
}

func TestMoney_YAML(t *testing.T) {
	var out struct {
		Rate Money `yaml:"rate"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("rate: 12.75\n"), &out))
	assert.Equal(t, "12.75", out.Rate.String())
}

func TestMoney_SQLValue(t *testing.T) {
	v, err := MustMoney("42.10").Value()
	require.NoError(t, err)
	assert.Equal(t, "42.1", v)

	var m Money
	require.NoError(t, m.Scan([]byte("42.10")))
	assert.Equal(t, "42.10", m.String())
}
