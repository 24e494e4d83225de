package messages

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var jsonNull = []byte(`null`)

// ContentOrParts represents either a simple string content or a collection of
// typed content parts. It serializes as a JSON string when Content is set and
// as a JSON array of parts otherwise.
type ContentOrParts struct {
	Content string
	Parts   []ContentPart
	_       struct{} // require keyed usage
}

// Text flattens the content to plain text, joining text parts with newlines.
func (c ContentOrParts) Text() string {
	if c.Content != "" {
		return c.Content
	}
	var sb strings.Builder
	for _, part := range c.Parts {
		if tp, ok := part.(TextContentPart); ok {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// MarshalJSON implements json.Marshaler for ContentOrParts.
func (c ContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON implements json.Unmarshaler for ContentOrParts. It accepts
// either a JSON string or an array of typed part objects.
func (c *ContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	switch {
	case jv.Type == gjson.Null:
		return nil
	case jv.IsArray():
		aj := jv.Array()
		parts := make([]ContentPart, len(aj))
		for idx, ajv := range aj {
			switch tpe := ajv.Get("type").String(); tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "image":
				var part ImageContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid image part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("unknown content part type %q at %d", tpe, idx)
			}
		}
		c.Parts = parts
		return nil
	case jv.Type == gjson.String:
		c.Content = jv.String()
		return nil
	default:
		return fmt.Errorf("expected string or array content, got %s", jv.Type)
	}
}

// ContentPart is a single element of multi-part user content.
type ContentPart interface {
	contentPart()
}

// Text creates a text content part.
func Text(text string) TextContentPart {
	return TextContentPart{Text: text}
}

// Image creates an image content part from a URL.
func Image(url string) ImageContentPart {
	return ImageContentPart{URL: url}
}

// TextContentPart holds plain text content.
type TextContentPart struct {
	Text string
	_    struct{}
}

func (TextContentPart) contentPart() {}

// MarshalJSON implements json.Marshaler for TextContentPart.
func (t TextContentPart) MarshalJSON() ([]byte, error) {
	result := []byte(`{"type":"text"}`)
	return sjson.SetBytes(result, "text", t.Text)
}

// UnmarshalJSON implements json.Unmarshaler for TextContentPart.
func (t *TextContentPart) UnmarshalJSON(input []byte) error {
	jv := gjson.ParseBytes(input)
	if jv.Get("type").String() != "text" {
		return fmt.Errorf("missing or invalid type, expected 'text'")
	}
	text := jv.Get("text")
	if !text.Exists() {
		return fmt.Errorf("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

// ImageContentPart holds an image reference. Detail controls the provider's
// image resolution mode when supported ("low", "high", "auto").
type ImageContentPart struct {
	URL    string
	Detail string
	_      struct{}
}

func (ImageContentPart) contentPart() {}

// MarshalJSON implements json.Marshaler for ImageContentPart.
func (i ImageContentPart) MarshalJSON() ([]byte, error) {
	result := []byte(`{"type":"image"}`)
	result, err := sjson.SetBytes(result, "image_url", i.URL)
	if err != nil {
		return nil, err
	}
	if i.Detail != "" {
		result, err = sjson.SetBytes(result, "detail", i.Detail)
	}
	return result, err
}

// UnmarshalJSON implements json.Unmarshaler for ImageContentPart.
func (i *ImageContentPart) UnmarshalJSON(input []byte) error {
	jv := gjson.ParseBytes(input)
	if jv.Get("type").String() != "image" {
		return fmt.Errorf("missing or invalid type, expected 'image'")
	}
	url := jv.Get("image_url")
	if !url.Exists() {
		return fmt.Errorf("missing required field 'image_url'")
	}
	i.URL = url.String()
	i.Detail = jv.Get("detail").String()
	return nil
}
