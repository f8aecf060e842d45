package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
)

// OllamaModel получает эмбеддинги через HTTP API Ollama (/api/embeddings).
type OllamaModel struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaModel(c *cfg.OllamaCfg) *OllamaModel {
	return &OllamaModel{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		model:   c.Model,
		client:  &http.Client{Timeout: c.Timeout},
	}
}

// OllamaLoader возвращает Loader, который проверяет доступность сервера до первого Embed.
func OllamaLoader(c *cfg.OllamaCfg) Loader {
	return func(ctx context.Context) (Model, error) {
		m := NewOllamaModel(c)
		if err := m.ping(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedRes struct {
	Embedding []float64 `json:"embedding"`
}

func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(ollamaEmbedReq{Model: m.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ollamaEmbedRes
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	return out.Embedding, nil
}

func (m *OllamaModel) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	return nil
}

func (m *OllamaModel) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
