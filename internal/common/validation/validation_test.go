package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
)

func TestResult(t *testing.T) {
	var r Result
	assert.True(t, r.Valid())
	assert.NoError(t, r.Err())

	r.Add("title", "不能为空")
	r.Addf("cards[0].requirements[1].quantity", "取值需在%d到%d之间", 1, 100000)

	assert.False(t, r.Valid())
	assert.True(t, r.Has("title"))
	assert.False(t, r.Has("description"))
	assert.Equal(t, []string{"title", "cards[0].requirements[1].quantity"}, r.Fields())

	err := r.Err()
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrDefinitionInvalid.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "title: 不能为空")
	details, ok := appErr.Details.([]FieldError)
	require.True(t, ok)
	assert.Len(t, details, 2)
}

func TestResult_ErrAs(t *testing.T) {
	var r Result
	r.Add("start_at", "活动重叠")
	appErr := errors.GetAppError(r.ErrAs(errors.ErrEventOverlap))
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrEventOverlap.Code, appErr.Code)
}

func TestResult_Merge(t *testing.T) {
	var a, b Result
	a.Add("a", "x")
	b.Add("b", "y")
	a.Merge(&b)
	a.Merge(nil)
	assert.Equal(t, []string{"a", "b"}, a.Fields())
}

func TestPath(t *testing.T) {
	assert.Equal(t, "title", Path("", "title"))
	assert.Equal(t, "cards[0].description", Path(Index("cards", 0), "description"))
	assert.Equal(t, "cards[2].requirements[1].conditions[0].value",
		Path(Index(Path(Index(Path(Index("cards", 2), "requirements"), 1), "conditions"), 0), "value"))
}

func TestRuneLength(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"正常", "Campanha Verão", true},
		{"过短", "abc", false},
		{"为空", "   ", false},
		{"多字节字符按字符计", "ótica", true},
		{"过长", string(make([]rune, 121)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Result
			RuneLength(&r, "title", tt.value, 5, 120)
			assert.Equal(t, tt.ok, r.Valid())
		})
	}
}

func TestIntRange(t *testing.T) {
	var r Result
	IntRange(&r, "q", 1, 1, 100000)
	IntRange(&r, "q", 100000, 1, 100000)
	assert.True(t, r.Valid())

	IntRange(&r, "q", 0, 1, 100000)
	assert.False(t, r.Valid())
}

func TestDecimalRangeAndPlaces(t *testing.T) {
	min, max := decimal.NewFromInt(1), decimal.NewFromInt(10)

	var r Result
	DecimalRange(&r, "m", decimal.RequireFromString("1.00"), min, max)
	DecimalRange(&r, "m", decimal.RequireFromString("10"), min, max)
	MaxPlaces(&r, "m", decimal.RequireFromString("2.55"), 2)
	assert.True(t, r.Valid())

	DecimalRange(&r, "m", decimal.RequireFromString("10.01"), min, max)
	MaxPlaces(&r, "m", decimal.RequireFromString("1.555"), 2)
	assert.Len(t, r.Errors, 2)
}

func TestHexColor(t *testing.T) {
	var r Result
	HexColor(&r, "c", "#FFAA00")
	HexColor(&r, "c", "#ffaa00")
	assert.True(t, r.Valid())

	HexColor(&r, "c", "FFAA00")
	HexColor(&r, "c", "#FFF")
	assert.Len(t, r.Errors, 2)
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("199,90")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("199.90")))

	d, err = ParseDecimal(" 250.5 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("250.5")))

	_, err = ParseDecimal("abc")
	assert.Error(t, err)
}

func TestNewClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(now, nil)
	assert.Equal(t, time.UTC, c.Location)
	assert.True(t, c.Now.Equal(now))

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	c = NewClock(now, loc)
	assert.Equal(t, 9, c.Now.Hour())
}
