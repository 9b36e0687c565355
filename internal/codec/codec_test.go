package codec

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input string
		want  RGB
	}{
		{"#ff0000", RGB{255, 0, 0}},
		{"#00ff00", RGB{0, 255, 0}},
		{"#0000ff", RGB{0, 0, 255}},
		{"#f00", RGB{255, 0, 0}},
		{"#0f0", RGB{0, 255, 0}},
		{"#abc", RGB{0xaa, 0xbb, 0xcc}},
		{"#1A2b3C", RGB{0x1a, 0x2b, 0x3c}},
		{"#000000", RGB{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if err != nil {
				t.Fatalf("ParseColor(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, input := range []string{
		"", "#", "ff0000", "f00", "#ff00", "#ff00000", "#gg0000", "#f0z", "#12345", " #fff",
	} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseColor(input); !errors.Is(err, ErrInvalidColor) {
				t.Errorf("ParseColor(%q) error = %v, want ErrInvalidColor", input, err)
			}
		})
	}
}

func TestRGB_String(t *testing.T) {
	if got := (RGB{255, 1, 16}).String(); got != "#ff0110" {
		t.Errorf("String() = %q, want %q", got, "#ff0110")
	}
}

func TestParseID(t *testing.T) {
	want := uuid.MustParse("3b4a1e4c-8f0e-4a9b-9c55-0a1d5e7f9b21")

	for _, input := range []string{
		"3b4a1e4c-8f0e-4a9b-9c55-0a1d5e7f9b21",
		"3B4A1E4C-8F0E-4A9B-9C55-0A1D5E7F9B21",
		"{3b4a1e4c-8f0e-4a9b-9c55-0a1d5e7f9b21}",
	} {
		got, err := ParseID(input)
		if err != nil {
			t.Fatalf("ParseID(%q) error = %v", input, err)
		}
		if got != want {
			t.Errorf("ParseID(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseID_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"not-a-guid",
		"3b4a1e4c8f0e4a9b9c550a1d5e7f9b21",
		"urn:uuid:3b4a1e4c-8f0e-4a9b-9c55-0a1d5e7f9b21",
		"[3b4a1e4c-8f0e-4a9b-9c55-0a1d5e7f9b21]",
		"3b4a1e4c-8f0e-4a9b-9c55-0a1d5e7f9bzz",
	} {
		if _, err := ParseID(input); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ParseID(%q) error = %v, want ErrInvalidID", input, err)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2021-03-04T05:06:07+02:00")
	if err != nil {
		t.Fatalf("ParseTimestamp error = %v", err)
	}
	want := time.Date(2021, 3, 4, 3, 6, 7, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTimestamp = %v, want %v", got, want)
	}
	if _, offset := got.Zone(); offset != 2*3600 {
		t.Errorf("offset = %d, want %d", offset, 2*3600)
	}

	if _, err := ParseTimestamp("2021-03-04T05:06:07.123Z"); err != nil {
		t.Errorf("fractional seconds rejected: %v", err)
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{
		"", "2021-03-04", "2021-03-04T05:06:07", "04/03/2021", "2021-03-04 05:06:07Z",
	} {
		if _, err := ParseTimestamp(input); !errors.Is(err, ErrInvalidTimestamp) {
			t.Errorf("ParseTimestamp(%q) error = %v, want ErrInvalidTimestamp", input, err)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"1", true, false},
		{"false", false, false},
		{"0", false, false},
		{"TRUE", false, true},
		{"yes", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		got, err := ParseBool(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBool(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBool(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseUint(t *testing.T) {
	got, err := ParseUint("18446744073709551615", 64)
	if err != nil || got != math.MaxUint64 {
		t.Fatalf("ParseUint(max) = %d, %v", got, err)
	}

	if _, err := ParseUint("18446744073709551616", 64); !errors.Is(err, ErrIntegerConversion) {
		t.Errorf("overflow error = %v, want ErrIntegerConversion", err)
	}
	if _, err := ParseUint("4294967296", 32); !errors.Is(err, ErrIntegerConversion) {
		t.Errorf("32-bit overflow error = %v, want ErrIntegerConversion", err)
	}
	if _, err := ParseUint("-1", 64); !errors.Is(err, ErrIntegerConversion) {
		t.Errorf("negative error = %v, want ErrIntegerConversion", err)
	}
	if _, err := ParseUint("12a", 64); !errors.Is(err, ErrInvalidInteger) {
		t.Errorf("syntax error = %v, want ErrInvalidInteger", err)
	}
	if v, err := ParseUint("+7", 64); err != nil || v != 7 {
		t.Errorf("ParseUint(+7) = %d, %v", v, err)
	}
}

func TestParseInt(t *testing.T) {
	if v, err := ParseInt("-42", 64); err != nil || v != -42 {
		t.Errorf("ParseInt(-42) = %d, %v", v, err)
	}
	if _, err := ParseInt("9223372036854775808", 64); !errors.Is(err, ErrIntegerConversion) {
		t.Errorf("overflow error = %v, want ErrIntegerConversion", err)
	}
	if _, err := ParseInt("1.5", 64); !errors.Is(err, ErrInvalidInteger) {
		t.Errorf("syntax error = %v, want ErrInvalidInteger", err)
	}
}

func TestParseFloat(t *testing.T) {
	if v, err := ParseFloat("2.5"); err != nil || v != 2.5 {
		t.Errorf("ParseFloat(2.5) = %v, %v", v, err)
	}
	if v, err := ParseFloat("-INF"); err != nil || !math.IsInf(v, -1) {
		t.Errorf("ParseFloat(-INF) = %v, %v", v, err)
	}
	if _, err := ParseFloat("two"); !errors.Is(err, ErrInvalidFloat) {
		t.Errorf("error = %v, want ErrInvalidFloat", err)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2020-02-29")
	if err != nil {
		t.Fatalf("ParseDate error = %v", err)
	}
	if got.Year() != 2020 || got.Month() != time.February || got.Day() != 29 {
		t.Errorf("ParseDate = %v", got)
	}
	if _, err := ParseDate("2020-02-30"); err == nil {
		t.Error("expected error for impossible date")
	}
}

func TestParseEnum(t *testing.T) {
	if v, err := ParseEnum("OneWay", "Associative", "OneWay", "Bidirectional"); err != nil || v != "OneWay" {
		t.Errorf("ParseEnum = %q, %v", v, err)
	}
	if _, err := ParseEnum("oneway", "OneWay"); !errors.Is(err, ErrInvalidEnumeration) {
		t.Errorf("error = %v, want ErrInvalidEnumeration", err)
	}
}
