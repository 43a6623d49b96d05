package health

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	cases := map[string]int{
		"/":        http.StatusOK,
		"/health":  http.StatusOK,
		"/metrics": http.StatusNotFound,
		"/health/": http.StatusNotFound,
	}
	for path, want := range cases {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, want, resp.StatusCode, path)
		if want == http.StatusOK {
			assert.Equal(t, Body, string(body), path)
		}
	}
}
