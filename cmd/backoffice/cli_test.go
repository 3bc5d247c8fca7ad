package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves just enough of the storefront API for the console.
type fakeAPI struct {
	patches atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/login":
		io.WriteString(w, `{"token":"opaque-token","user":{"_id":"admin1","name":"Ada","email":"ada@example.com"}}`)
	case r.URL.Path == "/auth/forgot-password":
		var body struct {
			Email string `json:"email"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "ada@example.com" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"No account with that email"}`)
			return
		}
		io.WriteString(w, `{"message":"sent"}`)
	case r.URL.Path == "/middleWare/verify-token":
		if r.Header.Get("Authorization") != "Bearer opaque-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"valid":true}`)
	case r.URL.Path == "/order/all":
		io.WriteString(w, `[
			{"_id":"o1","userId":"u1","status":"pending","totalAmount":300,"items":[{"productId":"p1","quantity":1,"price":250}]},
			{"_id":"o2","userId":"u2","status":"delivered","totalAmount":80,"items":[{"productId":"p2","quantity":2,"price":40}]}
		]`)
	case r.Method == http.MethodPatch && r.URL.Path == "/order/o1/status":
		f.patches.Add(1)
		var body struct {
			Status string `json:"status"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"order":{"_id":"o1","status":"`+body.Status+`"}}`)
	case r.URL.Path == "/product/all":
		io.WriteString(w, `[{"_id":"p1","title":"Mango","price":250,"stock":3,"category":"Fruits"}]`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"no route"}`)
	}
}

func setupCLI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("API_URL", srv.URL)
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "backoffice.db"))
	return api
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_RequiresLogin(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "orders", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestCLI_LoginPersistsAcrossInvocations(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as ada@example.com")

	out, err = execute(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada <ada@example.com> (admin1)")
}

func TestCLI_SetStatus(t *testing.T) {
	api := setupCLI(t)
	_, err := execute(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(t, "orders", "set-status", "o1", "Processing")
	require.NoError(t, err)
	assert.Contains(t, out, "o1 is now processing")
	assert.Equal(t, int32(1), api.patches.Load())

	_, err = execute(t, "orders", "set-status", "o2", "cancelled")
	require.Error(t, err)
	assert.Equal(t, int32(1), api.patches.Load(), "illegal move must not reach the server")
}

func TestCLI_Transitions(t *testing.T) {
	setupCLI(t)
	_, err := execute(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(t, "orders", "transitions", "o1")
	require.NoError(t, err)
	assert.Contains(t, out, "may move to: processing, cancelled")

	out, err = execute(t, "orders", "transitions", "o2")
	require.NoError(t, err)
	assert.Contains(t, out, "no further moves")
}

func TestCLI_ProductsList(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "products", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "Mango")
	assert.Contains(t, out, "250.00")
}

func TestCLI_ForgotPassword(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "forgot-password", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "reset email sent to ada@example.com")

	_, err = execute(t, "forgot-password", "--email", "bob@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No account with that email")
}
