package transactions

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataset(t *testing.T) {
	f, err := os.Open("testdata/dataset.json")
	require.NoError(t, err)
	defer f.Close()

	items, err := DecodeDataset(f)
	require.NoError(t, err)
	require.Len(t, items, 4)

	first := items[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), first.DateOfSale)
	assert.Equal(t, "50.00", first.PriceText())
	assert.True(t, first.Sold)
	assert.Equal(t, "109.95", items[3].PriceText())
}

func TestDecodeDatasetRejectsInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"duplicate": `[{"id":1,"price":1,"dateOfSale":"2021-01-01T00:00:00Z"},{"id":1,"price":2,"dateOfSale":"2021-01-01T00:00:00Z"}]`,
		"negative":  `[{"id":1,"price":-1,"dateOfSale":"2021-01-01T00:00:00Z"}]`,
		"no date":   `[{"id":1,"price":1}]`,
		"no id":     `[{"price":1,"dateOfSale":"2021-01-01T00:00:00Z"}]`,
		"not json":  `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataset(strings.NewReader(body))
			require.Error(t, err)
		})
	}
}
