package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supermarket-dashboard/internal/models"
)

const sampleCSV = "City,Payment,Product line,Gender,Date,gross income,Rating\n" +
	"Yangon,Cash,Health and beauty,Female,1/5/2019,10.5,9\n" +
	"Mandalay,Ewallet,Sports and travel,Male,2019-02-08,30,5.5\n" +
	"Yangon,Credit card,Home and lifestyle,Male,03/03/2019,16,7\n"

func TestParse(t *testing.T) {
	records, err := Parse(context.Background(), strings.NewReader(sampleCSV), DefaultColumns())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.SaleRecord{
		City:        "Yangon",
		Payment:     "Cash",
		ProductLine: "Health and beauty",
		Gender:      "Female",
		Date:        time.Date(2019, 1, 5, 0, 0, 0, 0, time.UTC),
		Revenue:     10.5,
		Rating:      9,
	}, records[0])
	assert.Equal(t, time.Date(2019, 2, 8, 0, 0, 0, 0, time.UTC), records[1].Date)
	assert.Equal(t, time.Date(2019, 3, 3, 0, 0, 0, 0, time.UTC), records[2].Date)
}

func TestParse_TrimsHeaderAndBOM(t *testing.T) {
	csv := "\ufeffCity , Payment,Product line,Gender,Date,gross income,Rating\n" +
		"Yangon,Cash,Health and beauty,Female,1/5/2019,10.5,9\n"

	records, err := Parse(context.Background(), strings.NewReader(csv), DefaultColumns())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Yangon", records[0].City)
}

func TestParse_CustomColumns(t *testing.T) {
	csv := "town,pay,line,sex,day,income,score\n" +
		"Yangon,Cash,Health and beauty,Female,2019-01-05,1,2\n"
	cols := ColumnMap{
		ColumnCity: "town", ColumnPayment: "pay", ColumnProductLine: "line",
		ColumnGender: "sex", ColumnDate: "day", ColumnRevenue: "income", ColumnRating: "score",
	}

	records, err := Parse(context.Background(), strings.NewReader(csv), cols)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1.0, records[0].Revenue)
	assert.Equal(t, 2.0, records[0].Rating)
}

func TestParse_MissingColumns(t *testing.T) {
	csv := "City,Payment,Gender,Date,Rating\n" +
		"Yangon,Cash,Female,1/5/2019,9\n"

	_, err := Parse(context.Background(), strings.NewReader(csv), DefaultColumns())
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), `product_line ("Product line")`)
	assert.Contains(t, err.Error(), `revenue ("gross income")`)
	assert.NotContains(t, err.Error(), "city")
}

func TestParse_CorruptValues(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad revenue", "Yangon,Cash,Health and beauty,Female,1/5/2019,abc,9", "line 2: revenue"},
		{"bad rating", "Yangon,Cash,Health and beauty,Female,1/5/2019,1,", "line 2: rating"},
		{"bad date", "Yangon,Cash,Health and beauty,Female,someday,1,9", "line 2: date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csv := "City,Payment,Product line,Gender,Date,gross income,Rating\n" + tt.row + "\n"
			_, err := Parse(context.Background(), strings.NewReader(csv), DefaultColumns())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader(""), DefaultColumns())
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Parse(context.Background(), strings.NewReader("City,Payment,Product line,Gender,Date,gross income,Rating\n"), DefaultColumns())
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestParse_LargeInputKeepsOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("City,Payment,Product line,Gender,Date,gross income,Rating\n")
	const n = batchSize*3 + 17
	for i := range n {
		b.WriteString("C,Cash,L,Male,1/5/2019,")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(",5\n")
	}

	records, err := Parse(context.Background(), strings.NewReader(b.String()), DefaultColumns())
	require.NoError(t, err)
	require.Len(t, records, n)
	for i, r := range records {
		if r.Revenue != float64(i) {
			t.Fatalf("record %d has revenue %v", i, r.Revenue)
		}
	}
}

func TestParse_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, strings.NewReader(sampleCSV), DefaultColumns())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	path := writeCSV(t, sampleCSV)

	ds, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"Yangon", "Mandalay"}, ds.Cities())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_UsesCache(t *testing.T) {
	path := writeCSV(t, sampleCSV)
	cacheDir := t.TempDir()

	// Backdate the CSV so the freshly written cache counts as newer.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	first, err := Load(context.Background(), path, Options{CacheDir: cacheDir})
	require.NoError(t, err)
	assert.FileExists(t, cacheFilename(cacheDir, path))

	// Corrupt the CSV; a cache hit must not read it.
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	require.NoError(t, os.Chtimes(path, past, past))

	second, err := Load(context.Background(), path, Options{CacheDir: cacheDir})
	require.NoError(t, err)
	assert.Equal(t, first.Len(), second.Len())
	assert.Equal(t, first.Cities(), second.Cities())
}

func TestLoad_StaleCacheIgnored(t *testing.T) {
	path := writeCSV(t, sampleCSV)
	cacheDir := t.TempDir()

	require.NoError(t, saveToCache(cacheDir, path, DefaultColumns(), []models.SaleRecord{{City: "Stale"}}))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	ds, err := Load(context.Background(), path, Options{CacheDir: cacheDir})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.NotContains(t, ds.Cities(), "Stale")
}

func TestLoad_CacheRejectsOtherColumnMap(t *testing.T) {
	csv := "City,Payment,Product line,Gender,Date,gross income,Total,Rating\n" +
		"Yangon,Cash,Health and beauty,Female,1/5/2019,10,500,9\n"
	path := writeCSV(t, csv)
	cacheDir := t.TempDir()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	first, err := Load(context.Background(), path, Options{CacheDir: cacheDir})
	require.NoError(t, err)
	for r := range first.Rows() {
		assert.Equal(t, 10.0, r.Revenue)
	}

	remapped, err := Load(context.Background(), path, Options{
		CacheDir: cacheDir,
		Columns:  ColumnMap{ColumnRevenue: "Total"},
	})
	require.NoError(t, err)
	for r := range remapped.Rows() {
		assert.Equal(t, 500.0, r.Revenue, "revenue must come from the remapped column")
	}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
