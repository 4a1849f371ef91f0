package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// generatedPostsSchema validates the AI response before any database write:
// a non-empty array of post objects with all six required fields.
const generatedPostsSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["publishDate", "socialNetwork", "rubric", "title", "content", "hashtags"],
		"properties": {
			"publishDate": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
			"socialNetwork": {"type": "string", "minLength": 1},
			"rubric": {"type": "string", "minLength": 1},
			"title": {"type": "string", "minLength": 1},
			"content": {"type": "string", "minLength": 1},
			"hashtags": {"type": "string"}
		}
	}
}`

var postsSchema = mustCompileSchema(generatedPostsSchema)

func mustCompileSchema(src string) *jsonschema.Schema {
	schema, err := jsonschema.NewCompiler().Compile([]byte(src))
	if err != nil {
		panic(fmt.Sprintf("invalid generated posts schema: %v", err))
	}
	return schema
}

// GeneratedPost is one post object returned by the AI.
type GeneratedPost struct {
	PublishDate   string `json:"publishDate"`
	SocialNetwork string `json:"socialNetwork"`
	Rubric        string `json:"rubric"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Hashtags      string `json:"hashtags"`
}

// ParseGeneratedPosts strips code fences, validates the response against the
// schema, and decodes it. Any schema violation rejects the whole batch.
func ParseGeneratedPosts(response string) ([]GeneratedPost, error) {
	raw := stripCodeFences(response)

	var generic interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("AI response is not valid JSON: %w", err)
	}

	result := postsSchema.Validate(generic)
	if !result.IsValid() {
		var errorMessages []string
		for field, evalErr := range result.Errors {
			errorMessages = append(errorMessages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		return nil, fmt.Errorf("AI response failed schema validation: %s", strings.Join(errorMessages, "; "))
	}

	var posts []GeneratedPost
	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	return posts, nil
}

// stripCodeFences removes a leading/trailing markdown code fence and any
// prose around the outermost JSON array.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}

	return s
}
