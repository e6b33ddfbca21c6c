package provider

import (
	"strings"

	"github.com/tidwall/gjson"

	"pictor-cli/internal/domain"
)

// The upstream response format is unversioned and has changed shape at least
// twice, so every read is an ordered list of named extractors tried in
// sequence: a pure predicate+extractor pair per known shape, first match
// wins, and an unmatched body fails loudly with the raw payload attached.
// Never guess beyond the known shapes.

type extractor struct {
	name    string
	extract func(body []byte) (string, bool)
}

func runExtractors(body []byte, extractors []extractor) (value, shape string, ok bool) {
	for _, e := range extractors {
		if v, ok := e.extract(body); ok {
			return v, e.name, true
		}
	}
	return "", "", false
}

// generationIDExtractors recognize the two known submission-response shapes,
// newest first: the nested creation record, then the flat legacy field.
var generationIDExtractors = []extractor{
	{name: "create.node.id", extract: func(body []byte) (string, bool) {
		return stringField(gjson.GetBytes(body, "create.node.id"))
	}},
	{name: "generation_id", extract: func(body []byte) (string, bool) {
		return stringField(gjson.GetBytes(body, "generation_id"))
	}},
}

// extractGenerationID pulls the canonical generation id out of a submission
// response. The server-echoed id is authoritative for polling even though
// the client generated its own node id for the payload.
func extractGenerationID(body []byte) (string, error) {
	id, _, ok := runExtractors(body, generationIDExtractors)
	if !ok {
		return "", domain.NewError(domain.KindUnexpectedResponse, "submission response carries no generation id").
			WithRawBody(body)
	}
	return id, nil
}

// chatExtractors recognize the shapes a chat-style enhancement response has
// been observed (or suspected) to take, in fixed priority order. The exact
// successful shape was never pinned down upstream, so treat this list as
// provisional.
var chatExtractors = []extractor{
	// A string field whose content is itself JSON with a prompt field.
	{name: "response-embedded-json", extract: func(body []byte) (string, bool) {
		r := gjson.GetBytes(body, "response")
		if r.Type != gjson.String || !gjson.Valid(r.Str) {
			return "", false
		}
		return stringField(gjson.Get(r.Str, "prompt"))
	}},
	// A plain content string field.
	{name: "content-string", extract: func(body []byte) (string, bool) {
		return stringField(gjson.GetBytes(body, "content"))
	}},
	// OpenAI-style nested choice/message/content.
	{name: "choices-message-content", extract: func(body []byte) (string, bool) {
		return stringField(gjson.GetBytes(body, "choices.0.message.content"))
	}},
	// A multi-part content array's first text entry.
	{name: "content-parts", extract: func(body []byte) (string, bool) {
		parts := gjson.GetBytes(body, "content")
		if !parts.IsArray() {
			return "", false
		}
		var found string
		parts.ForEach(func(_, part gjson.Result) bool {
			if text, ok := stringField(part.Get("text")); ok {
				found = text
				return false
			}
			return true
		})
		return found, found != ""
	}},
	// The root body itself is a bare JSON string.
	{name: "bare-string", extract: func(body []byte) (string, bool) {
		root := gjson.ParseBytes(body)
		if root.Type != gjson.String {
			return "", false
		}
		return stringField(root)
	}},
}

// extractChatPrompt locates the prompt-bearing content of a chat response.
// The returned shape name distinguishes a true unmatched-shape failure from
// a transport failure in the caller's logs.
func extractChatPrompt(body []byte) (prompt, shape string, err error) {
	prompt, shape, ok := runExtractors(body, chatExtractors)
	if !ok {
		return "", "", domain.NewError(domain.KindUnexpectedResponse, "chat response matches no recognized shape").
			WithRawBody(body)
	}
	return prompt, shape, nil
}

func stringField(r gjson.Result) (string, bool) {
	if r.Type != gjson.String || strings.TrimSpace(r.Str) == "" {
		return "", false
	}
	return r.Str, true
}
