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

// FaceMatcherImpl implements domain.FaceMatcher against the external
// face comparison service. Descriptor extraction happens client-side;
// this service only compares a descriptor to a stored template.
type FaceMatcherImpl struct {
	client  *http.Client
	baseURL string
}

// NewFaceMatcher creates a new face matcher client
func NewFaceMatcher(baseURL string, timeout time.Duration) domain.FaceMatcher {
	return &FaceMatcherImpl{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type faceMatchRequest struct {
	TemplateID string `json:"template_id"`
	Descriptor string `json:"descriptor"`
}

type faceMatchResponse struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
}

// Match implements domain.FaceMatcher
func (m *FaceMatcherImpl) Match(ctx context.Context, templateID string, descriptor []byte) (bool, float64, error) {
	payload, err := json.Marshal(faceMatchRequest{
		TemplateID: templateID,
		Descriptor: base64.StdEncoding.EncodeToString(descriptor),
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to encode match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/match", bytes.NewReader(payload))
	if err != nil {
		return false, 0, fmt.Errorf("failed to build match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return false, 0, domain.ErrNetworkUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, 0, domain.ErrNetworkUnavailable
	}

	var result faceMatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, 0, fmt.Errorf("failed to decode match response: %w", err)
	}

	return result.Match, result.Confidence, nil
}
