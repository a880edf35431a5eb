package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keywordParams struct {
	Keyword string `validate:"notblank"`
}

func TestValidateRequest_NotBlank(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"tab and newline", "\t\n", true},
		{"thai keyword", "ข้าว", false},
		{"keyword with surrounding spaces", "  rice  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&keywordParams{Keyword: tt.keyword})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"Keyword":"ข้าว"}`))
	var params keywordParams
	require.NoError(t, DecodeAndValidate(req, &params))
	assert.Equal(t, "ข้าว", params.Keyword)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"Keyword":"  "}`))
	assert.Error(t, DecodeAndValidate(req, &params))

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{broken`))
	assert.Error(t, DecodeAndValidate(req, &params))
}
