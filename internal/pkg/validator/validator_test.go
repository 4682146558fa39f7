package validator

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		if !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		if ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("09:05:30")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour+5*time.Minute+30*time.Second, d)

	d, err = ParseClock(" 18:00 ")
	require.NoError(t, err)
	assert.Equal(t, 18*time.Hour, d)

	for _, s := range []string{"", "25:00", "9am", "12:61:00"} {
		_, err := ParseClock(s)
		assert.Error(t, err, s)
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}
	if !IsInSlice("a", slice) {
		t.Errorf("IsInSlice('a') = false, want true")
	}
	if IsInSlice("d", slice) {
		t.Errorf("IsInSlice('d') = true, want false")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "start_date", Message: "invalid"},
		{Field: "hours", Message: "required"},
	}
	got := errs.Error()
	want := "start_date: invalid; hours: required"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(errs))
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "start_date", Message: "invalid"},
		{Field: "hours", Message: "required"},
	}
	got := errs.ToMap()
	assert.Equal(t, map[string]string{"start_date": "invalid", "hours": "required"}, got)
}

type sample struct {
	Kind  string `json:"kind" validate:"required,oneof=paid unpaid"`
	Hours int    `json:"hours" validate:"min=1,max=24"`
	Note  string `json:"-"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Kind: "paid", Hours: 4}))

	err := Struct(sample{Kind: "sick", Hours: 30})
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	m := errs.ToMap()
	assert.Equal(t, "kind must be one of: paid, unpaid", m["kind"])
	assert.Equal(t, "hours must be at most 24", m["hours"])
}
