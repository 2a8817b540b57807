// Package inference implements the answering capability behind the tier
// processor using the Gemini API. Source-bound tiers receive the excerpts
// verbatim and are instructed to answer only from them; the unaided tier
// receives nothing but the field rule and the entity name.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/tiers"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Oracle answers field questions via the Gemini API. It implements the tier
// processor's Oracle contract.
type Oracle struct {
	client *genai.Client
	model  string
}

// New creates an Oracle. The API key is required; model falls back to
// DefaultModel when empty.
func New(ctx context.Context, apiKey, model string) (*Oracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("inference: %w", errors.ErrAPIKeyRequired)
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, errors.NewConfigError("inference", "failed to create client", err)
	}
	return &Oracle{client: client, model: model}, nil
}

// sourcedResponse is the JSON shape requested from the model for the
// source-bound tiers.
type sourcedResponse struct {
	Answer     string `json:"answer"`
	NotPresent bool   `json:"not_present"`
	Conflicts  []struct {
		Source string `json:"source"`
		Claim  string `json:"claim"`
	} `json:"conflicts"`
}

// unaidedResponse is the JSON shape requested for the unaided tier.
type unaidedResponse struct {
	Answer      string `json:"answer"`
	Granularity string `json:"granularity"`
}

// AnswerFromSources answers strictly from the supplied excerpts.
func (o *Oracle) AnswerFromSources(ctx context.Context, rule types.FieldRule, entity types.EntityKey, excerpts []types.SourceExcerpt, prior *tiers.Answer) (tiers.SourcedAnswer, error) {
	prompt := sourcedPrompt(rule, entity, excerpts, prior)

	text, err := o.generate(ctx, sourcedSystemInstruction, prompt)
	if err != nil {
		return tiers.SourcedAnswer{}, err
	}
	return parseSourcedResponse(text)
}

// AnswerUnaided answers from background knowledge alone.
func (o *Oracle) AnswerUnaided(ctx context.Context, rule types.FieldRule, entity types.EntityKey) (tiers.UnaidedAnswer, error) {
	prompt := unaidedPrompt(rule, entity)

	text, err := o.generate(ctx, unaidedSystemInstruction, prompt)
	if err != nil {
		return tiers.UnaidedAnswer{}, err
	}
	return parseUnaidedResponse(text)
}

// parseSourcedResponse decodes a source-bound model response.
func parseSourcedResponse(text string) (tiers.SourcedAnswer, error) {
	var resp sourcedResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return tiers.SourcedAnswer{}, errors.WrapParse("json", "inference response", err)
	}

	answer := tiers.SourcedAnswer{
		Value:      strings.TrimSpace(resp.Answer),
		NotPresent: resp.NotPresent,
	}
	for _, c := range resp.Conflicts {
		if c.Source == "" || c.Claim == "" {
			continue
		}
		answer.Conflicts = append(answer.Conflicts, tiers.Conflict{
			Claims: map[types.SourceID]string{types.SourceID(c.Source): c.Claim},
		})
	}
	return answer, nil
}

// parseUnaidedResponse decodes an unaided model response.
func parseUnaidedResponse(text string) (tiers.UnaidedAnswer, error) {
	var resp unaidedResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return tiers.UnaidedAnswer{}, errors.WrapParse("json", "inference response", err)
	}
	return tiers.UnaidedAnswer{
		Value:       strings.TrimSpace(resp.Answer),
		Granularity: tiers.ParseGranularity(resp.Granularity),
	}, nil
}

// generate runs one model call and returns the raw response text.
func (o *Oracle) generate(ctx context.Context, system, prompt string) (string, error) {
	logging.Ctx(ctx).Debug().
		Str("model", o.model).
		Int("prompt_chars", len(prompt)).
		Msg("Calling inference model")

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(prompt), config)
	if err != nil {
		return "", errors.WrapAPI("inference", 0, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("inference: empty model response: %w", errors.ErrNoData)
	}
	return text, nil
}

const sourcedSystemInstruction = `You are a botanical data extractor. Answer the question about the plant using ONLY the supplied source excerpts. Never introduce facts that are not stated in the excerpts. If the excerpts do not answer the question, set not_present to true and leave answer empty. If sources disagree, still give the best-supported answer and list each disagreeing source with its claim under conflicts. Respond with JSON only.`

const unaidedSystemInstruction = `You are a botanical reference. Answer the question about the plant from your own knowledge. Report how specific your knowledge is: "species" if you know this exact species, "genus" if you are generalizing from the genus, "family" if generalizing from the family, "unknown" otherwise. Respond with JSON only.`

// sourcedPrompt renders the tier-1/tier-2 prompt. The prior tier's answer is
// included only when answering tier 2.
func sourcedPrompt(rule types.FieldRule, entity types.EntityKey, excerpts []types.SourceExcerpt, prior *tiers.Answer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plant: %s\n", entity.String())
	fmt.Fprintf(&b, "Field: %s\n", rule.Field)
	fmt.Fprintf(&b, "Question: %s\n", rule.Description)
	writeRuleConstraints(&b, rule)

	if prior != nil {
		if prior.NotPresent {
			b.WriteString("\nEarlier pass over the primary sources found no answer.\n")
		} else {
			fmt.Fprintf(&b, "\nEarlier answer from the primary sources: %q. Flag any excerpt below that contradicts it as a conflict.\n", prior.Value)
		}
	}

	b.WriteString("\nSource excerpts:\n")
	for i, e := range excerpts {
		fmt.Fprintf(&b, "\n[%d] source=%s", i+1, e.Source)
		if e.Title != "" {
			fmt.Fprintf(&b, " title=%q", e.Title)
		}
		b.WriteString("\n")
		b.WriteString(e.Text)
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with JSON: {\"answer\": string, \"not_present\": bool, \"conflicts\": [{\"source\": string, \"claim\": string}]}\n")
	return b.String()
}

// unaidedPrompt renders the tier-3 prompt. It deliberately carries no source
// material.
func unaidedPrompt(rule types.FieldRule, entity types.EntityKey) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plant: %s\n", entity.String())
	fmt.Fprintf(&b, "Field: %s\n", rule.Field)
	fmt.Fprintf(&b, "Question: %s\n", rule.Description)
	writeRuleConstraints(&b, rule)

	b.WriteString("\nRespond with JSON: {\"answer\": string, \"granularity\": \"species\"|\"genus\"|\"family\"|\"unknown\"}\n")
	return b.String()
}

// writeRuleConstraints renders the rule's formatting constraints shared by
// both prompt shapes.
func writeRuleConstraints(b *strings.Builder, rule types.FieldRule) {
	if rule.Format != "" {
		fmt.Fprintf(b, "Answer format: %s\n", rule.Format)
	}
	if rule.MaxLength > 0 {
		fmt.Fprintf(b, "Maximum answer length: %d characters\n", rule.MaxLength)
	}
	if len(rule.Vocabulary) > 0 {
		fmt.Fprintf(b, "Allowed terms: %s\n", strings.Join(rule.Vocabulary, ", "))
	}
	if len(rule.Prohibited) > 0 {
		fmt.Fprintf(b, "Never include: %s\n", strings.Join(rule.Prohibited, ", "))
	}
	if rule.BlankAllowed {
		b.WriteString("An empty answer is acceptable when nothing is documented.\n")
	}
}
