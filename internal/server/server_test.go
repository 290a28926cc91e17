package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sync-bridge/internal/common/config"
	"sync-bridge/internal/common/logger"
	"sync-bridge/internal/common/observability"
)

// One exporter per test binary: the otel prometheus exporter registers
// collectors with the default registry.
var testObs = observability.New("sync-bridge-test")

func testConfig(onspringBaseURL string) *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "sync-bridge"},
		Server:   config.ServerConfig{Port: 3000, ShutdownTimeout: 5000},
		Upstream: config.UpstreamConfig{Timeout: 5000, OnspringBaseURL: onspringBaseURL},
		Logging:  config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func syncRequestBody(serviceNowBaseURL string) map[string]interface{} {
	return map[string]interface{}{
		"serviceNowBaseUrl":            serviceNowBaseURL,
		"appName":                      "Widget Service",
		"onspringUserAppId":            1,
		"onspringUserFirstNameFieldId": 2,
		"onspringUserLastNameFieldId":  3,
		"onspringUserUsernameFieldId":  4,
		"onspringUserEmailFieldId":     5,
		"onspringUserFullNameFieldId":  6,
		"onspringUserStatusFieldId":    7,
		"onspringUserStatusValue":      "Active",
		"onspringUserTierFieldId":      8,
		"onspringUserTierValue":        "Tier 1",
		"onspringRegTypeAppId":         9,
		"onspringRegTypeIdFieldId":     10,
	}
}

func postSync(t *testing.T, serverURL string, body interface{}, authorize bool) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, serverURL+"/sync", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authorize {
		req.SetBasicAuth("svc-user", "svc-pass")
		req.Header.Set("x-apikey", "test-api-key")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// newServiceNowStub serves one business application whose owner and L3 links
// point back at the stub itself.
func newServiceNowStub(t *testing.T, regulatory string) *httptest.Server {
	t.Helper()

	var baseURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/now/table/cmdb_ci_business_app":
			assert.NotEmpty(t, r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"result": []map[string]interface{}{{
					"name":                              "Widget Service",
					"number":                            "APP0001",
					"short_description":                 "Widget management",
					"install_type":                      "SaaS",
					"u_cloud_model":                     "Public",
					"u_primary_it_owner":                map[string]string{"link": baseURL + "/api/now/table/sys_user/owner1", "value": "owner1"},
					"u_l3_name":                         map[string]string{"link": baseURL + "/api/now/table/sys_user/l31", "value": "l31"},
					"u_regulatory_legal_and_compliance": regulatory,
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/sys_user/owner1"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"result": map[string]string{"sys_id": "owner1", "name": "Jane Doe"},
			})
		case strings.HasSuffix(r.URL.Path, "/sys_user/l31"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"result": map[string]string{"sys_id": "l31", "name": "John Smith"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	baseURL = srv.URL
	return srv
}

func TestLivenessProbe(t *testing.T) {
	router := NewRouter(testConfig("http://unused"), logger.NewTestLogger(t), testObs)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Hello!", body["message"])
}

func TestSync_EndToEnd(t *testing.T) {
	serviceNow := newServiceNowStub(t, "PCI")
	defer serviceNow.Close()

	var createdFields map[string]interface{}
	onspring := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-apikey"))

		switch r.URL.Path {
		case "/Records/Query":
			var query struct {
				AppID  int    `json:"appId"`
				Filter string `json:"filter"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&query))

			items := []map[string]interface{}{}
			switch {
			case strings.Contains(query.Filter, "John Smith"):
				items = append(items, map[string]interface{}{"recordId": 55})
			case strings.Contains(query.Filter, "PCI"):
				items = append(items, map[string]interface{}{"recordId": 9})
			}
			// "Jane Doe" has no record yet: empty items, sentinel 0.
			json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
		case "/Records":
			var record struct {
				AppID  int                    `json:"appId"`
				Fields map[string]interface{} `json:"fields"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&record))
			createdFields = record.Fields
			json.NewEncoder(w).Encode(map[string]interface{}{"id": 101})
		default:
			http.NotFound(w, r)
		}
	}))
	defer onspring.Close()

	router := NewRouter(testConfig(onspring.URL), logger.NewTestLogger(t), testObs)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp := postSync(t, srv.URL, syncRequestBody(serviceNow.URL), true)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		AppName     string `json:"appName"`
		ShortName   string `json:"shortName"`
		Description string `json:"description"`
		InstallType string `json:"installType"`
		CloudModel  string `json:"cloudModel"`
		Owner       int    `json:"owner"`
		L3          int    `json:"l3"`
		Regulatory  string `json:"regulatory"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.Equal(t, "Widget Service", result.AppName)
	assert.Equal(t, "APP0001", result.ShortName)
	assert.Equal(t, "SaaS", result.InstallType)
	assert.Equal(t, "Public", result.CloudModel)
	assert.Equal(t, 101, result.Owner)
	assert.Equal(t, 55, result.L3)
	assert.Equal(t, "9", result.Regulatory)

	// Jane Doe was created with the derived field mapping.
	require.NotNil(t, createdFields)
	assert.Equal(t, "Jane", createdFields["2"])
	assert.Equal(t, "Doe", createdFields["3"])
	assert.Equal(t, "jane.doe", createdFields["4"])
	assert.Equal(t, "jane.doe@example.com", createdFields["5"])
	assert.Equal(t, "Active", createdFields["7"])
	assert.Equal(t, "Tier 1", createdFields["8"])
}

func TestSync_UpstreamFailureSurfacesAs500(t *testing.T) {
	serviceNow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}))
	defer serviceNow.Close()

	router := NewRouter(testConfig("http://unused"), logger.NewNoOpLogger(), testObs)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp := postSync(t, srv.URL, syncRequestBody(serviceNow.URL), true)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}

func TestSync_ValidationFailure(t *testing.T) {
	router := NewRouter(testConfig("http://unused"), logger.NewNoOpLogger(), testObs)
	srv := httptest.NewServer(router)
	defer srv.Close()

	tests := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{
			name:   "missing appName",
			mutate: func(body map[string]interface{}) { delete(body, "appName") },
		},
		{
			name:   "empty appName",
			mutate: func(body map[string]interface{}) { body["appName"] = "" },
		},
		{
			name:   "non-positive app id",
			mutate: func(body map[string]interface{}) { body["onspringUserAppId"] = 0 },
		},
		{
			name:   "relative base URL",
			mutate: func(body map[string]interface{}) { body["serviceNowBaseUrl"] = "not-a-url" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := syncRequestBody("https://example.service-now.com")
			tt.mutate(body)

			resp := postSync(t, srv.URL, body, true)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestSync_AuthGate(t *testing.T) {
	router := NewRouter(testConfig("http://unused"), logger.NewNoOpLogger(), testObs)
	srv := httptest.NewServer(router)
	defer srv.Close()

	t.Run("no credentials at all", func(t *testing.T) {
		resp := postSync(t, srv.URL, syncRequestBody("https://example.service-now.com"), false)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("basic auth without api key", func(t *testing.T) {
		payload, _ := json.Marshal(syncRequestBody("https://example.service-now.com"))
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/sync", bytes.NewReader(payload))
		require.NoError(t, err)
		req.SetBasicAuth("svc-user", "svc-pass")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("blank basic credentials", func(t *testing.T) {
		payload, _ := json.Marshal(syncRequestBody("https://example.service-now.com"))
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/sync", bytes.NewReader(payload))
		require.NoError(t, err)
		req.SetBasicAuth(" ", " ")
		req.Header.Set("x-apikey", "test-api-key")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	router := NewRouter(testConfig("http://unused"), logger.NewNoOpLogger(), testObs)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}
