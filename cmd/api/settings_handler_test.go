package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreach-backend/pkg/ai"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func settingsRouter(settings *DelegateSettings) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSettingsHandler(settings)
	r := gin.New()
	r.GET("/api/settings/delegate", h.GetDelegateSettings)
	r.PUT("/api/settings/delegate", h.UpdateDelegateSettings)
	r.POST("/api/settings/delegate/test", h.TestDelegateConnection)
	return r
}

func TestDelegateSettings_Update(t *testing.T) {
	settings := NewDelegateSettings(ai.ProviderOllama, "http://localhost:11434", "llama3")
	r := settingsRouter(settings)

	req := httptest.NewRequest(http.MethodPut, "/api/settings/delegate",
		bytes.NewBufferString(`{"ollama_base_url":"http://gpu-box:11434"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://gpu-box:11434", settings.OllamaBaseURL())
	assert.Equal(t, "llama3", settings.OllamaModel())

	req = httptest.NewRequest(http.MethodPut, "/api/settings/delegate", bytes.NewBufferString(`{"ollama_base_url":"not a url"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelegateSettings_TestConnection(t *testing.T) {
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer ollama.Close()

	r := settingsRouter(NewDelegateSettings(ai.ProviderOllama, ollama.URL, "llama3"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/settings/delegate/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"connected":true`)

	ollama.Close()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/settings/delegate/test", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
