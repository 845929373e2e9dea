package lms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/domains/fulfillment"
)

const enrollmentPath = "/api/enrollment/v1/enrollment"

// Client revokes course enrollments through the LMS enrollment API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type enrollmentRequest struct {
	User                 string        `json:"user"`
	IsActive             bool          `json:"is_active"`
	CourseDetails        courseDetails `json:"course_details"`
	EnrollmentAttributes []attribute   `json:"enrollment_attributes,omitempty"`
}

type courseDetails struct {
	CourseID string `json:"course_id"`
}

type attribute struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

func (c *Client) RevokeLine(ctx context.Context, req fulfillment.RevocationRequest) error {
	body, err := json.Marshal(enrollmentRequest{
		User:          req.Username,
		IsActive:      false,
		CourseDetails: courseDetails{CourseID: req.CourseID},
		EnrollmentAttributes: []attribute{
			{Namespace: "order", Name: "order_number", Value: req.OrderNumber},
		},
	})
	if err != nil {
		return fmt.Errorf("encode enrollment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+enrollmentPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build enrollment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Edx-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", fulfillment.ErrRevocationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error().
			Int("status", resp.StatusCode).
			Str("course_id", req.CourseID).
			Str("username", req.Username).
			Str("body", string(snippet)).
			Msg("[LMS] Enrollment revocation rejected")
		return fmt.Errorf("%w: LMS responded %d", fulfillment.ErrRevocationFailed, resp.StatusCode)
	}

	log.Info().
		Str("refund_line_id", req.RefundLineID.String()).
		Str("course_id", req.CourseID).
		Str("username", req.Username).
		Dur("latency", time.Since(start)).
		Msg("[LMS] Enrollment revoked")

	return nil
}
