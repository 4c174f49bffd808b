package expr

import (
	"testing"

	"github.com/groveql/qengine/date"
)

func TestDateExtractAndTrunc(t *testing.T) {
	d := Date(date.Date(2024, 3, 15, 10, 30, 45, 0))
	get := func(i int) (Value, error) { return d, nil }

	year, err := (Call{Name: "date_extract_year", Args: []Node{Column{Index: 0}}}).Eval(get)
	if err != nil {
		t.Fatal(err)
	}
	if y, _ := year.Int(); y != 2024 {
		t.Fatalf("date_extract_year = %d, want 2024", y)
	}

	month, err := (Call{Name: "date_extract_month", Args: []Node{Column{Index: 0}}}).Eval(get)
	if err != nil {
		t.Fatal(err)
	}
	if m, _ := month.Int(); m != 3 {
		t.Fatalf("date_extract_month = %d, want 3", m)
	}

	trunc, err := (Call{Name: "date_trunc_month", Args: []Node{Column{Index: 0}}}).Eval(get)
	if err != nil {
		t.Fatal(err)
	}
	tv, ok := trunc.Date()
	if !ok {
		t.Fatalf("date_trunc_month did not return a date Value")
	}
	if tv.Day() != 1 || tv.Month() != 3 {
		t.Fatalf("date_trunc_month = %v, want day 1 of March", tv)
	}
}

func TestDateAddDay(t *testing.T) {
	d := Date(date.Date(2024, 1, 31, 0, 0, 0, 0))
	get := func(i int) (Value, error) {
		if i == 1 {
			return Int(1), nil
		}
		return d, nil
	}
	added, err := (Call{Name: "date_add_day", Args: []Node{Column{Index: 0}, Column{Index: 1}}}).Eval(get)
	if err != nil {
		t.Fatal(err)
	}
	av, ok := added.Date()
	if !ok {
		t.Fatalf("date_add_day did not return a date Value")
	}
	if av.Month() != 2 || av.Day() != 1 {
		t.Fatalf("date_add_day(2024-01-31, 1) = %v, want 2024-02-01", av)
	}
}
