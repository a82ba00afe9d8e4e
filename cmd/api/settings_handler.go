package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"outreach-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

const ollamaProbeTimeout = 5 * time.Second

// DelegateSettings is the runtime-editable part of the LLM delegate setup.
// The Ollama endpoint is read through getters, so updates apply to the
// next delegate call without a restart.
type DelegateSettings struct {
	mu            sync.RWMutex
	provider      ai.ProviderType
	ollamaBaseURL string
	ollamaModel   string
}

func NewDelegateSettings(provider ai.ProviderType, ollamaBaseURL, ollamaModel string) *DelegateSettings {
	return &DelegateSettings{
		provider:      provider,
		ollamaBaseURL: ollamaBaseURL,
		ollamaModel:   ollamaModel,
	}
}

func (s *DelegateSettings) OllamaBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ollamaBaseURL
}

func (s *DelegateSettings) OllamaModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ollamaModel
}

func (s *DelegateSettings) update(baseURL, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ollamaBaseURL = baseURL
	if model != "" {
		s.ollamaModel = model
	}
}

func (s *DelegateSettings) snapshot() gin.H {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gin.H{
		"provider":        s.provider,
		"ollama_base_url": s.ollamaBaseURL,
		"ollama_model":    s.ollamaModel,
	}
}

type UpdateDelegateSettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required,url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// SettingsHandler exposes the delegate settings
type SettingsHandler struct {
	settings *DelegateSettings
	client   *http.Client
}

func NewSettingsHandler(settings *DelegateSettings) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		client:   &http.Client{Timeout: ollamaProbeTimeout},
	}
}

// GET /api/settings/delegate
func (h *SettingsHandler) GetDelegateSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.snapshot())
}

// PUT /api/settings/delegate
func (h *SettingsHandler) UpdateDelegateSettings(c *gin.Context) {
	var req UpdateDelegateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.settings.update(req.OllamaBaseURL, req.OllamaModel)
	c.JSON(http.StatusOK, h.settings.snapshot())
}

// TestDelegateConnection checks that the Ollama server answers
// POST /api/settings/delegate/test
func (h *SettingsHandler) TestDelegateConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	// an empty body probes the current endpoint
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = h.settings.OllamaBaseURL()
	}

	if err := h.probeOllama(c.Request.Context(), req.OllamaBaseURL); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":       false,
			"ollama_base_url": req.OllamaBaseURL,
			"error":           err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}

func (h *SettingsHandler) probeOllama(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama answered with status %d", resp.StatusCode)
	}
	return nil
}
