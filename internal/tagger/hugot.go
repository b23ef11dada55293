package tagger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	appLog "kscal/internal/log"
)

// hugotTagger runs an ONNX token-classification model through hugot.
type hugotTagger struct {
	session  *hugot.Session
	pipeline *pipelines.TokenClassificationPipeline
}

// NewHugot builds a Tagger backed by the given Hugging Face
// token-classification model, downloading it into modelDir on first use.
//
// Construction is expensive (model download + ONNX session); callers should
// build one tagger per process. Any failure here should be treated as "no
// tagger available", not as a fatal error.
func NewHugot(modelName, modelDir string) (Tagger, error) {
	modelPath, err := prepareModel(modelName, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-tagger",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			appLog.Error("hugot session cleanup failed", destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	appLog.Info("entity tagger ready", "model", modelName, "path", modelPath)

	return &hugotTagger{session: session, pipeline: pipeline}, nil
}

func (h *hugotTagger) Tag(text string) ([]Span, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	result, err := h.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to run NER: %w", err)
	}
	if len(result.Entities) == 0 {
		return nil, nil
	}

	spans := make([]Span, 0, len(result.Entities[0]))
	for _, entity := range result.Entities[0] {
		word := strings.TrimSpace(entity.Word)
		if word == "" {
			continue
		}
		spans = append(spans, Span{
			Text:  word,
			Label: normalizeLabel(entity.Entity),
			Start: int(entity.Start),
			End:   int(entity.End),
		})
	}
	return spans, nil
}

// normalizeLabel strips BIO tagging prefixes (B- for beginning, I- for
// inside) so callers only see the bare category.
func normalizeLabel(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}

// prepareModel downloads the model if it is not already present and returns
// the local model path.
func prepareModel(modelName, modelDir string) (string, error) {
	if modelDir == "" {
		modelDir = "./models"
	}
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		downloadOptions.OnnxFilePath = "onnx/model.onnx"
		downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("failed to download model: %w", err)
		}
		modelPath = downloadedPath
	}

	return modelPath, nil
}
