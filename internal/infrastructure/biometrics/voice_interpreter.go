package biometrics

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/you/bankauth/domain"
)

// VoiceInterpreterImpl implements domain.VoiceInterpreter against the
// external speech interpretation service.
type VoiceInterpreterImpl struct {
	client  *http.Client
	baseURL string
}

// NewVoiceInterpreter creates a new voice interpreter client
func NewVoiceInterpreter(baseURL string, timeout time.Duration) domain.VoiceInterpreter {
	return &VoiceInterpreterImpl{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type interpretRequest struct {
	Sample string `json:"sample"`
}

type interpretResponse struct {
	Intent     string  `json:"intent"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Interpret implements domain.VoiceInterpreter
func (v *VoiceInterpreterImpl) Interpret(ctx context.Context, sample []byte) (*domain.VoiceIntent, error) {
	payload, err := json.Marshal(interpretRequest{
		Sample: base64.StdEncoding.EncodeToString(sample),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode interpret request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/v1/interpret", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build interpret request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, domain.ErrNetworkUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrNetworkUnavailable
	}

	var result interpretResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode interpret response: %w", err)
	}

	return &domain.VoiceIntent{
		Intent:     result.Intent,
		Transcript: result.Transcript,
		Confidence: result.Confidence,
	}, nil
}
