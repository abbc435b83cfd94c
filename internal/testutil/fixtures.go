// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"io"
	"log/slog"
	"time"

	"supermarket-dashboard/internal/dataset"
	"supermarket-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SampleRecords has three cities with frequencies Yangon 3, Naypyitaw 2, Mandalay 1.
func SampleRecords() []models.SaleRecord {
	return []models.SaleRecord{
		{City: "Yangon", Payment: "Cash", ProductLine: "Health and beauty", Gender: "Female", Date: day(2019, 1, 5), Revenue: 10.5, Rating: 9},
		{City: "Naypyitaw", Payment: "Ewallet", ProductLine: "Electronic accessories", Gender: "Female", Date: day(2019, 3, 8), Revenue: 4.25, Rating: 9.5},
		{City: "Yangon", Payment: "Credit card", ProductLine: "Home and lifestyle", Gender: "Male", Date: day(2019, 3, 3), Revenue: 16, Rating: 7},
		{City: "Yangon", Payment: "Ewallet", ProductLine: "Health and beauty", Gender: "Male", Date: day(2019, 1, 27), Revenue: 20, Rating: 8},
		{City: "Mandalay", Payment: "Ewallet", ProductLine: "Sports and travel", Gender: "Male", Date: day(2019, 2, 8), Revenue: 30, Rating: 5.5},
		{City: "Naypyitaw", Payment: "Cash", ProductLine: "Electronic accessories", Gender: "Male", Date: day(2019, 1, 5), Revenue: 5, Rating: 4},
	}
}

func SampleDataset() *dataset.Dataset {
	return dataset.New(SampleRecords())
}

// SampleCSV is SampleRecords in the supermarket export layout, with extra columns.
const SampleCSV = `Invoice ID,Branch,City,Customer type,Gender,Product line,Unit price,Quantity,Date,Payment,gross income,Rating
750-67-8428,A,Yangon,Member,Female,Health and beauty,74.69,7,1/5/2019,Cash,10.5,9
226-31-3081,C,Naypyitaw,Normal,Female,Electronic accessories,15.28,5,3/8/2019,Ewallet,4.25,9.5
631-41-3108,A,Yangon,Normal,Male,Home and lifestyle,46.33,7,3/3/2019,Credit card,16,7
123-19-1176,A,Yangon,Member,Male,Health and beauty,58.22,8,1/27/2019,Ewallet,20,8
373-73-7910,B,Mandalay,Normal,Male,Sports and travel,86.31,7,2/8/2019,Ewallet,30,5.5
699-14-3026,C,Naypyitaw,Normal,Male,Electronic accessories,85.39,7,1/5/2019,Cash,5,4
`

// DiscardLogger drops everything below error.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
