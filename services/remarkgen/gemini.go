// Package remarkgen drafts report card remarks with Gemini.
package remarkgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
)

type GeminiWriter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ remark.Writer = (*GeminiWriter)(nil)

func NewGeminiWriter(ctx context.Context, conf core.GeminiConfig) (*GeminiWriter, error) {
	if conf.APIKey == "" {
		return nil, errors.New("gemini.apiKey is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &GeminiWriter{client: client, model: client.GenerativeModel(conf.Model)}, nil
}

func (w *GeminiWriter) Close() error {
	return w.client.Close()
}

func (w *GeminiWriter) WriteRemark(ctx context.Context, p remark.Prompt) (string, error) {
	resp, err := w.model.GenerateContent(ctx, genai.Text(Prompt(p)))
	if err != nil {
		return "", errors.Wrap(err, "generating remark")
	}
	return firstText(resp), nil
}

// Prompt is the instruction sent to the model.
func Prompt(p remark.Prompt) string {
	return fmt.Sprintf(
		"Generate a professional and encouraging school report card remark for a student named %s. "+
			"Performance summary: %s. "+
			"The remark should be from the perspective of a %s. "+
			"Keep it concise (1-2 sentences) and suitable for a Nigerian school context.",
		p.StudentName, p.Performance, p.Perspective,
	)
}

// firstText joins the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
