package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liver-predict/internal/config"
)

const diseaseBody = `{
	"prediction": "Liver Disease Detected",
	"risk": "High Risk",
	"summary": "High risk of liver disease detected.",
	"warnings": [{"marker": "ALT / SGPT", "value": 90, "upper_limit": 56, "severity": "moderate", "message": "ALT / SGPT is moderately elevated (normal upper limit 56.0)."}],
	"shap_contributions": [{"feature": "alt", "value": 90, "contribution": 0.42, "impact": "positive"}],
	"base_value": 0.3
}`

var recordArgs = []string{
	"--age", "52", "--gender", "male",
	"--total-bilirubin", "2.4", "--direct-bilirubin", "1.1",
	"--alkaline-phosphatase", "310", "--alt", "90", "--ast", "40",
	"--total-proteins", "6.8", "--albumin", "3.1", "--ag-ratio", "0.9",
}

func testConfig(t *testing.T, apiURL string) *config.LiteConfig {
	t.Helper()
	cfg := config.DefaultLiteConfig()
	cfg.APIURL = apiURL
	cfg.APITimeout = 5 * time.Second
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.LogLevel = "error"
	cfg.LogFormat = "text"
	return cfg
}

func execute(t *testing.T, cfg *config.LiteConfig, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(newApp(cfg, &out, &errOut))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func upstream(t *testing.T, status int, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/health" {
			_, _ = w.Write([]byte(`{"model_loaded": true}`))
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitAPIError, exitCode(withCode(exitAPIError, nil)))
	assert.Equal(t, exitUsage, exitCode(errors.New("unknown flag")))
}

func TestValidate_Valid(t *testing.T) {
	cfg := testConfig(t, "http://unused.test")

	out, _, err := execute(t, cfg, append([]string{"validate"}, recordArgs...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "Record is valid.")
	assert.Contains(t, out, "Alkaline Phosphatase")
}

func TestValidate_FieldErrors(t *testing.T) {
	cfg := testConfig(t, "http://unused.test")

	out, _, err := execute(t, cfg, "validate", "--age", "0", "--gender", "2", "--json")

	assert.Equal(t, exitInvalid, exitCode(err))
	var resp struct {
		Valid  bool                `json:"valid"`
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, []string{"Age must be at least 1"}, resp.Errors["age"])
	assert.Equal(t, []string{"Gender must be 0 (Female) or 1 (Male)"}, resp.Errors["gender"])
	assert.Equal(t, []string{"A/G Ratio is required"}, resp.Errors["ag_ratio"])
}

func TestValidate_FromFileWithFlagOverride(t *testing.T) {
	cfg := testConfig(t, "http://unused.test")
	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"age": 45, "gender": 1, "total_bilirubin": 0.9, "direct_bilirubin": 0.2,
		"alkaline_phosphatase": 120, "alt": 30, "ast": 25,
		"total_proteins": 7.0, "albumin": 4.0, "ag_ratio": 1.2
	}`), 0644))

	out, _, err := execute(t, cfg, "validate", "--file", path, "--direct-bilirubin", "1.5")

	assert.Equal(t, exitInvalid, exitCode(err))
	assert.Contains(t, out, "Direct Bilirubin cannot exceed Total Bilirubin")
}

func TestPredict_Success(t *testing.T) {
	cfg := testConfig(t, upstream(t, http.StatusOK, diseaseBody))

	out, _, err := execute(t, cfg, append([]string{"predict"}, recordArgs...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "Liver Disease Detected")
	assert.Contains(t, out, "Feature Contributions (SHAP Analysis)")
	assert.Contains(t, out, "Saved to history as")

	list, _, err := execute(t, cfg, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, list, "1 of 1 predictions")
	assert.Contains(t, list, "cli")
}

func TestPredict_NoRecord(t *testing.T) {
	cfg := testConfig(t, "http://unused.test")

	_, _, err := execute(t, cfg, "predict")

	assert.Equal(t, exitUsage, exitCode(err))
}

func TestPredict_FieldErrorsSkipNetwork(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer server.Close()
	cfg := testConfig(t, server.URL)

	out, _, err := execute(t, cfg, "predict", "--age", "200")

	assert.Equal(t, exitInvalid, exitCode(err))
	assert.Contains(t, out, "Age must be at most 120")
	assert.False(t, called)
}

func TestPredict_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"validation", http.StatusBadRequest, `{"error":"Invalid input data","details":["age: bad"]}`, "age: bad"},
		{"server", http.StatusInternalServerError, `{}`, "Server error. Please try again later."},
		{"generic", http.StatusTeapot, `{"error":"short and stout"}`, "short and stout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, upstream(t, tt.status, tt.body))

			_, stderr, err := execute(t, cfg, append([]string{"predict"}, recordArgs...)...)

			assert.Equal(t, exitAPIError, exitCode(err))
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		cfg := testConfig(t, upstream(t, http.StatusOK, `{}`))
		out, _, err := execute(t, cfg, "health")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "ready"))
	})

	t.Run("unreachable", func(t *testing.T) {
		cfg := testConfig(t, "http://127.0.0.1:1")
		cfg.APITimeout = 500 * time.Millisecond
		out, _, err := execute(t, cfg, "health")
		assert.Equal(t, exitUnavailable, exitCode(err))
		assert.True(t, strings.HasPrefix(out, "not ready"))
	})
}

func TestHistory_ExportImportDelete(t *testing.T) {
	cfg := testConfig(t, upstream(t, http.StatusOK, diseaseBody))

	_, _, err := execute(t, cfg, append([]string{"predict"}, recordArgs...)...)
	require.NoError(t, err)

	exported, _, err := execute(t, cfg, "history", "export", "-o", "-")
	require.NoError(t, err)
	var export struct {
		Count   int `json:"count"`
		Entries []struct {
			ID string `json:"id"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(exported), &export))
	require.Equal(t, 1, export.Count)
	id := export.Entries[0].ID

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(exported), 0644))

	out, _, err := execute(t, cfg, "history", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 predictions, skipped 1")

	out, _, err = execute(t, cfg, "history", "show", id, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, _, err = execute(t, cfg, "history", "delete", id)
	require.NoError(t, err)

	_, _, err = execute(t, cfg, "history", "show", id)
	assert.Equal(t, exitInvalid, exitCode(err))
}

func TestFieldValidator(t *testing.T) {
	validate := fieldValidator("age")

	assert.NoError(t, validate("45"))
	assert.EqualError(t, validate(""), "Age is required")
	assert.EqualError(t, validate("abc"), "Age is required")
	assert.EqualError(t, validate("121"), "Age must be at most 120")
}

func TestNormaliseGender(t *testing.T) {
	assert.Equal(t, "0", normaliseGender("gender", "Female"))
	assert.Equal(t, "1", normaliseGender("gender", "m"))
	assert.Equal(t, "1", normaliseGender("gender", "1"))
	assert.Equal(t, "male", normaliseGender("age", "male"))
}
