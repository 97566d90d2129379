package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/llm"
)

const maxDiagnosticBytes = 512

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content      `json:"contents"`
	GenerationConfig map[string]any `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Analyze implements llm.Analyzer against the generateContent endpoint.
// Non-2xx replies are retried per the configured policy; transport failures are not.
// Every failure comes back as a *common.AppError and never as a panic.
func (c *Client) Analyze(ctx context.Context, image []byte, mimeType string) (*llm.Analysis, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	c.logger.Info("llm.analyze.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"image_bytes", len(image),
		"mime_type", mimeType,
	)

	body := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: llm.BuildAnalysisPrompt()},
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
			},
		}},
		GenerationConfig: map[string]any{"temperature": 0},
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	var (
		raw    []byte
		status int
	)
	attempts, err := c.cfg.Retry.Do(ctx, c.logger, func(ctx context.Context, _ int) (bool, error) {
		var sendErr error
		raw, status, sendErr = llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
		if sendErr == nil {
			return false, nil
		}
		return status != 0, sendErr
	})
	if err != nil {
		c.logger.Error("llm.analyze.http_error",
			"req_id", rid,
			"status", status,
			"attempts", attempts,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if status == 0 {
			return nil, common.ExternalServiceError("request failed", err)
		}
		msg := fmt.Sprintf("status %d after %d attempts: %s", status, attempts, diagnostic(raw))
		return nil, common.ExternalServiceError(msg, err)
	}

	text, err := replyText(raw)
	if err != nil {
		c.logger.Error("llm.analyze.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	analysis, err := llm.ParseAnalysis(llm.Sanitize(text), c.logger)
	if err != nil {
		c.logger.Error("llm.analyze.parse_failed",
			"req_id", rid, "error", err, "reply", diagnostic([]byte(text)),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.logger.Info("llm.analyze.ok",
		"req_id", rid,
		"store", analysis.StoreName,
		"date", analysis.ReceiptDate.Format("2006-01-02"),
		"items", len(analysis.LineItems),
		"attempts", attempts,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return analysis, nil
}

// replyText extracts candidates[0].content.parts[0].text from the envelope.
func replyText(raw []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", common.MalformedAnalysisError("decode gemini envelope", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", common.MalformedAnalysisError("no candidate text in gemini response", nil)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func diagnostic(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= maxDiagnosticBytes {
		return s
	}
	cut := maxDiagnosticBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
