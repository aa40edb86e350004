package translation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormality(t *testing.T) {
	for input, want := range map[string]Formality{
		"default": FormalityDefault,
		"":        FormalityDefault,
		"more":    FormalityMore,
		"MORE":    FormalityMore,
		"less":    FormalityLess,
	} {
		got, err := ParseFormality(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseFormality("casual")
	assert.Error(t, err)
}

func TestTranslateSuccess(t *testing.T) {
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"detected_source_language":"EN","text":"Bonjour"}]}`))
	}))
	defer srv.Close()

	c := NewDeepLClient("test-key", srv.URL, 3, 5*time.Second)
	got, err := c.Translate(context.Background(), "Hello", "fr", FormalityDefault)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", got)

	assert.Equal(t, []string{"test-key"}, gotForm["auth_key"])
	assert.Equal(t, []string{"Hello"}, gotForm["text"])
	assert.Equal(t, []string{"FR"}, gotForm["target_lang"])
	assert.NotContains(t, gotForm, "formality")
}

func TestTranslateSendsFormality(t *testing.T) {
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"translations":[{"text":"Guten Tag"}]}`))
	}))
	defer srv.Close()

	c := NewDeepLClient("k", srv.URL, 1, 5*time.Second)
	_, err := c.Translate(context.Background(), "Hello", "DE", FormalityMore)
	require.NoError(t, err)
	assert.Equal(t, []string{"more"}, gotForm["formality"])
}

func TestTranslateConcatenatesFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translations":[{"text":"Teil eins. "},{"text":"Teil zwei."}]}`))
	}))
	defer srv.Close()

	c := NewDeepLClient("k", srv.URL, 1, 5*time.Second)
	got, err := c.Translate(context.Background(), "Part one. Part two.", "DE", FormalityDefault)
	require.NoError(t, err)
	assert.Equal(t, "Teil eins. Teil zwei.", got)
}

func TestTranslateDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Authorization failed"}`))
	}))
	defer srv.Close()

	c := NewDeepLClient("bad-key", srv.URL, 3, 5*time.Second)
	_, err := c.Translate(context.Background(), "Hello", "DE", FormalityDefault)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusForbidden, svcErr.StatusCode)
	assert.Equal(t, "Authorization failed", svcErr.Message)
}

func TestTranslateRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"translations":[{"text":"Hallo"}]}`))
	}))
	defer srv.Close()

	c := NewDeepLClient("k", srv.URL, 2, 5*time.Second)
	got, err := c.Translate(context.Background(), "Hello", "DE", FormalityDefault)
	require.NoError(t, err)
	assert.Equal(t, "Hallo", got)
	assert.Equal(t, 2, calls)
}

func TestTranslateEmptyTranslations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translations":[]}`))
	}))
	defer srv.Close()

	c := NewDeepLClient("k", srv.URL, 1, 5*time.Second)
	_, err := c.Translate(context.Background(), "Hello", "DE", FormalityDefault)
	require.Error(t, err)
}

func TestServiceErrorRetryable(t *testing.T) {
	assert.True(t, (&ServiceError{StatusCode: 429}).Retryable())
	assert.True(t, (&ServiceError{StatusCode: 500}).Retryable())
	assert.True(t, (&ServiceError{StatusCode: 503}).Retryable())
	assert.False(t, (&ServiceError{StatusCode: 400}).Retryable())
	assert.False(t, (&ServiceError{StatusCode: 403}).Retryable())
	assert.False(t, (&ServiceError{StatusCode: 456}).Retryable())
}
