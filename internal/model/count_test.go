package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          string
		placeholder bool
		out         string
	}{
		{"number", `42`, false, `42`},
		{"numeric string", `"1,200"`, false, `1200`},
		{"placeholder", `"..."`, true, `"..."`},
		{"text", `"unknown"`, true, `"unknown"`},
		{"null", `null`, true, `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var c Count
			require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
			assert.Equal(t, tt.placeholder, c.IsPlaceholder())

			b, err := json.Marshal(c)
			require.NoError(t, err)
			assert.Equal(t, tt.out, string(b))
		})
	}
}

func TestCount_InvalidJSON(t *testing.T) {
	t.Parallel()

	var c Count
	assert.Error(t, json.Unmarshal([]byte(`true`), &c))
}

func TestContactInfo_UnmarshalString(t *testing.T) {
	t.Parallel()

	var c ContactInfo
	require.NoError(t, json.Unmarshal([]byte(`"500 Main St, Houston TX"`), &c))
	assert.Equal(t, "500 Main St, Houston TX", c.Address)
	assert.Empty(t, c.Email)

	require.NoError(t, json.Unmarshal([]byte(`{"phone":"555","email":"a@b.co","website":"b.co"}`), &c))
	assert.Equal(t, "a@b.co", c.Email)
	assert.Empty(t, c.Address)
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ACME IMPORTS", NormalizeName("Acme Imports, LLC"))
	assert.Equal(t, "CAFE DU MONDE", NormalizeName("Café  du Monde Inc."))
	assert.Equal(t, "ACME IMPORTS", NormalizeName("ACME IMPORTS INC"))
	assert.True(t, IsSubscribed([]Subscription{{CompanyName: "acme imports llc"}}, "ACME Imports"))
	assert.False(t, IsSubscribed(nil, "ACME Imports"))
}

func TestFoldName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ACME IMPORTS LLC", FoldName("Acme Imports, LLC"))
	assert.Equal(t, FoldName("Acme Imports, LLC"), FoldName("  acme   imports llc "))
	assert.Equal(t, "CAFE DU MONDE INC.", FoldName("Café du Monde Inc."))
	assert.NotEqual(t, FoldName("Acme Imports LLC"), FoldName("Acme Imports Inc"))
}
