package intake

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, version string) Schema {
	t.Helper()
	s, err := LookupSchema(version)
	require.NoError(t, err)
	return s
}

func TestLookupSchema(t *testing.T) {
	s, err := LookupSchema("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchemaVersion, s.Version)
	assert.True(t, s.HasField(FieldFrameRate))

	_, err = LookupSchema("v9")
	require.Error(t, err)
}

func TestValidator_MissingFieldsReportedTogether(t *testing.T) {
	tests := []struct {
		name    string
		version string
		payload Payload
		message string
	}{
		{
			name:    "v3 empty payload lists all in declaration order",
			version: "v3",
			payload: Payload{},
			message: "Missing required fields: video_url, frame_rate, email",
		},
		{
			name:    "v3 missing video_url and email",
			version: "v3",
			payload: Payload{"frame_rate": json.Number("30")},
			message: "Missing required fields: video_url, email",
		},
		{
			name:    "v2 missing video_url only",
			version: "v2",
			payload: Payload{"email": "a@b.c"},
			message: "Missing required fields: video_url",
		},
		{
			name:    "v1 uses video_link",
			version: "v1",
			payload: Payload{"video_url": "https://example.com/v.mp4"},
			message: "Missing required fields: video_link, email",
		},
		{
			name:    "null and blank count as missing",
			version: "v2",
			payload: Payload{"video_url": nil, "email": "  "},
			message: "Missing required fields: video_url, email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator(mustSchema(t, tt.version)).Validate(tt.payload)
			require.Error(t, err)
			assert.Equal(t, MissingFields, KindOf(err))

			var ie *Error
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.message, ie.Message())
		})
	}
}

func TestValidator_FrameRate(t *testing.T) {
	base := func(rate any) Payload {
		return Payload{"video_url": "https://example.com/v.mp4", "email": "a@b.c", "frame_rate": rate}
	}

	tests := []struct {
		name    string
		rate    any
		want    int
		wantErr string
	}{
		{name: "json integer", rate: json.Number("30"), want: 30},
		{name: "go int", rate: 60, want: 60},
		{name: "integral float", rate: float64(25), want: 25},
		{name: "zero", rate: json.Number("0"), wantErr: "must be greater than zero"},
		{name: "negative", rate: json.Number("-5"), wantErr: "must be greater than zero"},
		{name: "negative float", rate: float64(-1), wantErr: "must be greater than zero"},
		{name: "fractional", rate: json.Number("29.97"), wantErr: "must be an integer"},
		{name: "fractional float", rate: 23.976, wantErr: "must be an integer"},
		{name: "string", rate: "30", wantErr: "must be an integer"},
		{name: "bool", rate: true, wantErr: "must be an integer"},
		{name: "huge", rate: json.Number("99999999999"), wantErr: "must be at most"},
	}

	v := NewValidator(mustSchema(t, "v3"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := v.Validate(base(tt.rate))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, InvalidField, KindOf(err))
				assert.NotEqual(t, MissingFields, KindOf(err))
				assert.Contains(t, err.Error(), "Invalid field frame_rate")
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, fields.FrameRate)
			assert.Equal(t, tt.want, *fields.FrameRate)
		})
	}
}

func TestValidator_FrameRateIgnoredOutsideSchema(t *testing.T) {
	fields, err := NewValidator(mustSchema(t, "v2")).Validate(Payload{
		"video_url":  "https://example.com/v.mp4",
		"email":      "a@b.c",
		"frame_rate": "not a number",
	})
	require.NoError(t, err)
	assert.Nil(t, fields.FrameRate)
}

func TestValidator_NonStringField(t *testing.T) {
	_, err := NewValidator(mustSchema(t, "v2")).Validate(Payload{
		"video_url": 12,
		"email":     "a@b.c",
	})
	require.Error(t, err)
	assert.Equal(t, InvalidField, KindOf(err))
	assert.Contains(t, err.Error(), "Invalid field video_url: must be a string")
}

func TestValidator_Fields(t *testing.T) {
	fields, err := NewValidator(mustSchema(t, "v1")).Validate(Payload{
		"video_link": " https://example.com/v.mp4 ",
		"email":      "a@b.c",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v.mp4", fields.SourceURL)
	assert.Equal(t, "a@b.c", fields.Email)
	assert.Nil(t, fields.FrameRate)
}

func TestValidator_Idempotent(t *testing.T) {
	v := NewValidator(mustSchema(t, "v3"))
	payloads := []Payload{
		{},
		{"video_url": "u", "email": "e", "frame_rate": json.Number("0")},
		{"video_url": "u", "email": "e", "frame_rate": json.Number("24")},
	}

	for _, p := range payloads {
		_, first := v.Validate(p)
		_, second := v.Validate(p)
		assert.Equal(t, KindOf(first), KindOf(second))
		assert.Equal(t, first == nil, second == nil)
	}
}
