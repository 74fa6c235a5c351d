package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

// CaptionRequest is what the AI text service receives for one social post.
type CaptionRequest struct {
	Listing     *model.Listing
	Platform    model.Platform
	Status      model.ListingStatus
	Style       string
	Tone        string
	MaxChars    int
	MaxHashtags int
}

// CaptionReply is the structured answer expected back.
type CaptionReply struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// TextService generates social captions. Any error it returns is treated
// as a soft failure by the Generator.
type TextService interface {
	GenerateCaption(ctx context.Context, req CaptionRequest) (*CaptionReply, error)
}

var errEmptyCaption = errors.New("reply has an empty caption")

// BuildCaptionPrompt renders the listing facts and platform limits into
// the user prompt.
func BuildCaptionPrompt(req CaptionRequest) string {
	l := req.Listing
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s social media post for %s announcing: %s.\n", orDefault(req.Tone, "professional"), req.Platform, req.Status.Banner())
	fmt.Fprintf(&b, "Style: %s.\n", orDefault(req.Style, "standard"))
	fmt.Fprintf(&b, "Property: %s, %s, %s %s.\n", l.Address, l.City, l.State, l.Zip)
	fmt.Fprintf(&b, "Price: %s. Bedrooms: %d. Bathrooms: %s. Square feet: %s.\n", FormatPrice(l.Price), l.Bedrooms, FormatBaths(l.Bathrooms), FormatNumber(l.Sqft))
	if l.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", l.Description)
	}
	if len(l.Features) > 0 {
		fmt.Fprintf(&b, "Features: %s.\n", strings.Join(l.Features, ", "))
	}
	fmt.Fprintf(&b, "The caption must be at most %d characters and must not contain hashtags.\n", req.MaxChars)
	fmt.Fprintf(&b, "Return at most %d hashtags, without the leading '#'.\n", req.MaxHashtags)
	return b.String()
}

// ParseCaptionReply decodes a JSON reply and rejects empty captions.
func ParseCaptionReply(text string) (*CaptionReply, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var reply CaptionReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &reply); err != nil {
		return nil, fmt.Errorf("decode caption reply: %w", err)
	}
	if strings.TrimSpace(reply.Caption) == "" {
		return nil, errEmptyCaption
	}
	return &reply, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// =============================================================================
// GOOGLE GENAI CAPTION SERVICE
// =============================================================================

const systemInstruction = "You are a real estate marketing copywriter. " +
	"Reply only with JSON matching the schema. Never invent facts that are not in the prompt."

var captionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"caption":  {Type: genai.TypeString},
		"hashtags": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"caption", "hashtags"},
}

// GenAIService generates captions with Google's Gemini API.
type GenAIService struct {
	client *genai.Client
	model  string
}

// NewGenAIService creates a caption service for model.
func NewGenAIService(ctx context.Context, apiKey, model string) (*GenAIService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIService{client: client, model: model}, nil
}

func (s *GenAIService) GenerateCaption(ctx context.Context, req CaptionRequest) (*CaptionReply, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    captionSchema,
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(BuildCaptionPrompt(req)), config)
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}
	return ParseCaptionReply(resp.Text())
}

// Name returns the service name used in logs.
func (s *GenAIService) Name() string {
	return fmt.Sprintf("genai:%s", s.model)
}

var _ TextService = (*GenAIService)(nil)
