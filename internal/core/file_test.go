package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateFile(t *testing.T) {
	cases := []struct {
		name string
		file File
		ok   bool
	}{
		{"csv by mime", File{Name: "statement", ContentType: "text/csv", Size: 10}, true},
		{"xlsx by extension", File{Name: "march.XLSX", ContentType: "application/octet-stream", Size: 10}, true},
		{"xls by mime", File{Name: "old.bin", ContentType: "application/vnd.ms-excel", Size: 10}, true},
		{"csv mime with charset", File{Name: "a", ContentType: "text/csv; charset=utf-8", Size: 10}, true},
		{"exactly at limit", File{Name: "big.csv", Size: MaxUploadSize}, true},
		{"pdf", File{Name: "report.pdf", ContentType: "application/pdf", Size: 10}, false},
		{"too large", File{Name: "huge.csv", ContentType: "text/csv", Size: MaxUploadSize + 1}, false},
		{"no name", File{Name: "", ContentType: "text/csv", Size: 1}, false},
	}
	for _, tc := range cases {
		err := ValidateFile(tc.file)
		if tc.ok && err != nil {
			t.Fatalf("%s: expected ok, got %v", tc.name, err)
		}
		if !tc.ok {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
			}
		}
	}
}

func TestValidateFileSizeMessage(t *testing.T) {
	err := ValidateFile(File{Name: "huge.csv", Size: 20 << 20})
	if err == nil || !strings.Contains(err.Error(), "16 MiB") {
		t.Fatalf("expected humanized limit in message, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"-85,500", "-85500", true},
		{"₩1,234", "1234", true},
		{"12,34", "12.34", true},
		{"1,234.50", "1234.5", true},
		{" 2000 ", "2000", true},
		{"1,2,3", "", false},
		{"abc", "", false},
		{"12abc3", "", false},
		{"1o0", "", false},
		{"$ 1,000", "1000", true},
		{"€12,50", "12.5", true},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tc.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q) err = %v, want ErrInvalidAmount", tc.in, err)
		}
	}
}
