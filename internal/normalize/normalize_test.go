package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"housingreview/internal/normalize"
)

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-05", "2024-01-05", true},
		{"2024.1.5", "2024-01-05", true},
		{"2024. 01. 05.", "2024-01-05", true},
		{"2024/01/05", "2024-01-05", true},
		{"2024년 1월 5일", "2024-01-05", true},
		{"20240105", "2024-01-05", true},
		{"２０２４－０１－０５", "2024-01-05", true},
		{"2024-13-01", "", false},
		{"홍길동", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalize.Date(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,234.50", "1234.5"},
		{"1234.5 ㎡", "1234.5㎡"},
		{"84.99m²", "84.99㎡"},
		{"45%", "45%"},
		{"20 세대", "20세대"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalize.Number(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := normalize.Number("서울시 중구 1")
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	assert.True(t, normalize.Equal("서울시  중구\n세종대로 110", "서울시 중구 세종대로 110"))
	assert.True(t, normalize.Equal("2023.07.01", "2023년 7월 1일"))
	assert.True(t, normalize.Equal("1,200", "1200.0"))
	assert.True(t, normalize.Equal("ＡＢＣ１２３", "ABC123"))
	assert.False(t, normalize.Equal("홍길동", "홍길순"))
	assert.False(t, normalize.Equal("2023-07-01", "2023-07-02"))
}
