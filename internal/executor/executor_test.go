package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSiteClient scripts one Run result per test.
type fakeSiteClient struct {
	payload json.RawMessage
	rows    int
	err     error

	lastOperation string
	lastParams    map[string]string
}

func (f *fakeSiteClient) Run(ctx context.Context, operation string, params map[string]string) (json.RawMessage, int, error) {
	f.lastOperation = operation
	f.lastParams = params
	return f.payload, f.rows, f.err
}

type fakeCaptchaError struct {
	url string
}

func (e *fakeCaptchaError) Error() string        { return "captcha at " + e.url }
func (e *fakeCaptchaError) ChallengeURL() string { return e.url }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	fn := func(ctx context.Context, jobID string, params map[string]string) (*Outcome, error) {
		return &Outcome{Status: StatusSuccess}, nil
	}

	require.NoError(t, r.Register("gis", "statistics", fn))

	err := r.Register("gis", "statistics", fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_Validate(t *testing.T) {
	r := NewRegistry()
	client := &fakeSiteClient{payload: json.RawMessage(`{}`), rows: 1}

	require.NoError(t, RegisterGIS(r, client))

	// GIS alone does not cover the full dispatch table
	err := r.Validate(DefaultPairs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yandex")

	require.NoError(t, RegisterYandex(r, client))
	require.NoError(t, r.Validate(DefaultPairs()))
}

func TestRegistry_Keys(t *testing.T) {
	r := NewRegistry()
	client := &fakeSiteClient{}

	require.NoError(t, RegisterGIS(r, client))
	require.NoError(t, RegisterYandex(r, client))

	keys := r.Keys()
	assert.Len(t, keys, len(DefaultPairs()))
	assert.ElementsMatch(t, DefaultPairs(), keys)
}

func TestRegistry_ExecuteUnknownPair(t *testing.T) {
	r := NewRegistry()

	outcome, err := r.Execute(context.Background(), "job-1", "gis", "nonsense", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job type")
	assert.Nil(t, outcome)
}

func TestSiteOperation(t *testing.T) {
	params := map[string]string{"target_id": "70000001"}

	t.Run("missing target_id", func(t *testing.T) {
		fn := siteOperation(&fakeSiteClient{}, "statistics")

		outcome, err := fn(context.Background(), "job-1", map[string]string{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target_id")
		assert.Nil(t, outcome)
	})

	t.Run("success", func(t *testing.T) {
		client := &fakeSiteClient{payload: json.RawMessage(`{"rating": 4.7}`), rows: 1}
		fn := siteOperation(client, "statistics")

		outcome, err := fn(context.Background(), "job-1", params)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, outcome.Status)
		assert.JSONEq(t, `{"rating": 4.7}`, string(outcome.Payload))
		assert.Equal(t, "statistics", client.lastOperation)
	})

	t.Run("no rows downgrades to warning", func(t *testing.T) {
		client := &fakeSiteClient{payload: json.RawMessage(`[]`), rows: 0}
		fn := siteOperation(client, "reviews")

		outcome, err := fn(context.Background(), "job-1", params)
		require.NoError(t, err)
		assert.Equal(t, StatusWarning, outcome.Status)
		assert.Contains(t, outcome.Note, "no rows")
	})

	t.Run("captcha challenge", func(t *testing.T) {
		client := &fakeSiteClient{err: &fakeCaptchaError{url: "https://captcha.example/solve"}}
		fn := siteOperation(client, "reviews")

		outcome, err := fn(context.Background(), "job-1", params)
		require.NoError(t, err)
		assert.Equal(t, StatusCaptchaRequired, outcome.Status)
		assert.Equal(t, "https://captcha.example/solve", outcome.ChallengeURL)
	})

	t.Run("plain error passes through", func(t *testing.T) {
		client := &fakeSiteClient{err: errors.New("target not found")}
		fn := siteOperation(client, "statistics")

		outcome, err := fn(context.Background(), "job-1", params)
		require.Error(t, err)
		assert.Nil(t, outcome)
	})
}

func TestEmptyPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{name: "empty string", payload: "", want: true},
		{name: "null literal", payload: "null", want: true},
		{name: "empty array", payload: "[]", want: true},
		{name: "empty object", payload: "{}", want: true},
		{name: "empty json string", payload: `""`, want: true},
		{name: "whitespace around empty array", payload: "  []  ", want: true},
		{name: "object with data", payload: `{"a":1}`, want: false},
		{name: "array with data", payload: `[1]`, want: false},
		{name: "zero literal", payload: "0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmptyPayload(json.RawMessage(tt.payload)))
		})
	}
}
