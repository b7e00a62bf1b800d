package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/fra-atlas/platform/pkg/extract"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const vertexSystemPrompt = `You are a document transcription assistant for Indian forest rights land records. You will receive one scanned page that may be written in English, Hindi, Marathi, Telugu, Odia, Bengali or Gujarati. Transcribe all visible text faithfully, preserving line breaks, then extract the structured fields you can read. Respond with JSON only.`

const vertexUserPrompt = `Transcribe the attached scanned page and extract its structured fields.

Return a single JSON object with exactly these keys:
  "text": the full transcription, one source line per line, no commentary.
  "fields": an object mapping any of claim_number, claimant_name, village, district, state, area, area_unit, land_type, submission_date to the values read from the page. Omit keys you cannot read. Values must be strings; area must be a plain decimal number; area_unit must be "hectare" or "acre"; land_type must be "individual" or "community".
  "confidence": your overall reading confidence from 0 to 100.
  "language": the dominant language of the page in lowercase English, e.g. "hindi".

Do not invent values. Leave out any field that is not clearly legible.`

// vertexResponseSchema rejects malformed model output before anything
// reaches the document row.
const vertexResponseSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string"},
		"fields": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"confidence": {"type": "number", "minimum": 0, "maximum": 100},
		"language": {"type": "string"}
	}
}`

type vertexResponse struct {
	Text       string            `json:"text"`
	Fields     map[string]string `json:"fields"`
	Confidence *float64          `json:"confidence"`
	Language   string            `json:"language"`
}

// VertexEngine reads scanned pages with a Gemini multimodal model on
// Vertex AI. It is the preferred engine; the orchestrator falls back
// to local recognition when it errors.
type VertexEngine struct {
	client *genai.Client
	model  *genai.GenerativeModel
	schema *jsonschema.Schema
}

func NewVertexEngine(ctx context.Context, projectID, region, modelName string) (*VertexEngine, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex engine requires a project id and region")
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("creating vertex client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(vertexSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	// Land records are benign; blocking categories only costs recall.
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	schema, err := jsonschema.CompileString("response.json", vertexResponseSchema)
	if err != nil {
		return nil, fmt.Errorf("compiling response schema: %w", err)
	}

	return &VertexEngine{client: client, model: model, schema: schema}, nil
}

func (e *VertexEngine) Name() string {
	return "gemini"
}

func (e *VertexEngine) Recognize(ctx context.Context, req Request) (*Result, error) {
	image := genai.Blob{MIMEType: req.MediaType, Data: req.Data}

	resp, err := e.model.GenerateContent(ctx, image, genai.Text(vertexUserPrompt))
	if err != nil {
		return nil, fmt.Errorf("vertex generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("vertex returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	raw := strings.TrimSpace(sb.String())
	if raw == "" {
		return nil, fmt.Errorf("vertex returned no text parts")
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("vertex response is not valid JSON: %w", err)
	}
	if err := e.schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("vertex response failed schema validation: %w", err)
	}

	var parsed vertexResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decoding vertex response: %w", err)
	}

	result := &Result{
		Text:       parsed.Text,
		Confidence: parsed.Confidence,
		Language:   strings.ToLower(strings.TrimSpace(parsed.Language)),
	}
	if len(parsed.Fields) > 0 {
		result.Fields = sanitizeModelFields(parsed.Fields)
	}
	return result, nil
}

func (e *VertexEngine) Close() error {
	return e.client.Close()
}

// sanitizeModelFields keeps only the field names the pipeline knows
// about. Model output is untrusted input even after schema validation.
func sanitizeModelFields(raw map[string]string) extract.FieldMap {
	known := map[string]struct{}{
		extract.FieldClaimNumber:    {},
		extract.FieldClaimantName:   {},
		extract.FieldVillage:        {},
		extract.FieldDistrict:       {},
		extract.FieldState:          {},
		extract.FieldArea:           {},
		extract.FieldAreaUnit:       {},
		extract.FieldLandType:       {},
		extract.FieldSubmissionDate: {},
	}
	out := make(extract.FieldMap)
	for k, v := range raw {
		if _, ok := known[k]; !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
