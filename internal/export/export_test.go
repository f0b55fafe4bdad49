package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"findash/internal/core"
)

func sample() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Amount: 100, Category: "Revenue", Status: "Paid", UserID: "u1", UserProfile: "Alice", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Amount: -40.5, Category: "Expense", Status: "Pending", UserID: "u2", UserProfile: "Smith, Bob", Date: time.Date(2024, 1, 20, 13, 4, 5, 678_000_000, time.UTC)},
	}
}

func TestParseColumns(t *testing.T) {
	cases := []struct {
		name string
		q    url.Values
		want []string
	}{
		{"absent selects all", url.Values{}, []string{"id", "date", "amount", "category", "status", "user_id", "user_profile"}},
		{"unknown dropped", url.Values{"columns": {"amount,bogusField"}}, []string{"amount"}},
		{"allow-list order wins", url.Values{"columns": {"user_profile, amount,id"}}, []string{"id", "amount", "user_profile"}},
		{"repeated parameter", url.Values{"columns": {"status", "date"}}, []string{"date", "status"}},
		{"only unknown", url.Values{"columns": {"password"}}, []string{}},
		{"present but empty", url.Values{"columns": {""}}, []string{"id", "date", "amount", "category", "status", "user_id", "user_profile"}},
		{"only separators", url.Values{"columns": {" , ,"}}, []string{"id", "date", "amount", "category", "status", "user_id", "user_profile"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseColumns(tc.q)
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "xlsx": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if FormatCSV.ContentType() != "text/csv" || FormatCSV.Filename() != "transactions.csv" {
		t.Fatalf("unexpected csv metadata")
	}
	if FormatXLSX.Filename() != "transactions.xlsx" {
		t.Fatalf("unexpected xlsx filename")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, AllowedColumns(), sample()); err != nil {
		t.Fatal(err)
	}
	want := "id,date,amount,category,status,user_id,user_profile\n" +
		"1,2024-01-05T00:00:00.000Z,100,Revenue,Paid,u1,Alice\n" +
		"2,2024-01-20T13:04:05.678Z,-40.5,Expense,Pending,u2,\"Smith, Bob\"\n"
	if buf.String() != want {
		t.Fatalf("expected\n%s\ngot\n%s", want, buf.String())
	}
}

func TestWriteCSVProjection(t *testing.T) {
	var buf bytes.Buffer
	cols := ParseColumns(url.Values{"columns": {"amount,bogusField"}})
	if err := WriteCSV(&buf, cols, sample()); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || len(records[0]) != 1 || records[0][0] != "amount" || records[2][0] != "-40.5" {
		t.Fatalf("unexpected records %v", records)
	}
}

func TestWriteCSVNoColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []string{}, sample()); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\n\n\n" {
		t.Fatalf("expected one empty line per row, got %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSVSerializationError(t *testing.T) {
	err := WriteCSV(failingWriter{}, AllowedColumns(), sample())
	if !errors.Is(err, core.ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	cols := []string{"id", "date", "amount", "user_profile"}
	if err := FormatXLSX.Write(&buf, cols, sample()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "id,date,amount,user_profile" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[2][0] != "2" || rows[2][1] != "2024-01-20T13:04:05.678Z" || rows[2][2] != "-40.5" || rows[2][3] != "Smith, Bob" {
		t.Fatalf("unexpected row %v", rows[2])
	}
}
