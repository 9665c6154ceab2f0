package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"

	"courserag/internal/tools"
)

// systemPrompt steers the model toward tool use for course questions and
// plain answers for everything else.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content with access to tools for searching content and retrieving course structure.

Available Tools:
1. search_course_content - Search within course lesson content for specific information, concepts, or answers
2. get_course_outline - Retrieve course structure, lesson lists, and navigation information

Tool Selection Guidelines:
- Use search_course_content for questions about specific concepts, topics, or technical details from lesson materials.
- Use get_course_outline for questions about course structure, organization, or what lessons are available.
- Use no tools for general knowledge questions unrelated to the course materials.

Tool Usage Constraints:
- Maximum two sequential tool calls per query.
- If a tool yields no results, state this clearly without offering unrelated alternatives.

Response Protocol:
- Provide direct answers without mentioning the search process or tool selection.
- Be concise and clear, using accessible language appropriate for learners.
- Synthesize tool results into coherent, natural responses.

Remember: Provide only the direct answer to what was asked.`

// maxToolRounds caps sequential tool exchanges within one query.
const maxToolRounds = 2

type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Generator{client: client, model: model}
}

// GenerateResponse answers a query in a fresh chat session, letting the model
// call tools for at most maxToolRounds exchanges before forcing a text reply.
// Conversation history rides along in the system instruction.
func (g *Generator) GenerateResponse(ctx context.Context, query, history string, executor tools.Executor) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(800)

	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	if executor != nil {
		model.Tools = declareTools(executor.Definitions())
	}

	session := &genaiToolSession{model: model, chat: model.StartChat()}
	return converse(ctx, session, executor, genai.Text(query))
}

// toolSession is the slice of a chat session the round loop needs. It exists
// so the loop can be driven without a live client in tests.
type toolSession interface {
	Send(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	DisableTools()
}

type genaiToolSession struct {
	model *genai.GenerativeModel
	chat  *genai.ChatSession
}

func (s *genaiToolSession) Send(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return s.chat.SendMessage(ctx, parts...)
}

func (s *genaiToolSession) DisableTools() { s.model.Tools = nil }

// converse sends the prompt, then runs at most maxToolRounds tool exchanges.
// Tools are stripped before the final allowed exchange so the reply must be
// text; the bound holds even if the model keeps emitting function calls.
func converse(ctx context.Context, session toolSession, executor tools.Executor, prompt genai.Part) (string, error) {
	resp, err := session.Send(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	for round := 0; executor != nil && round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			slog.InfoContext(ctx, "executing tool call", "tool", call.Name, "round", round+1)
			result := executor.Execute(ctx, call.Name, call.Args)
			parts = append(parts, genai.FunctionResponse{
				Name:     call.Name,
				Response: map[string]interface{}{"result": result},
			})
		}

		if round+1 >= maxToolRounds {
			session.DisableTools()
		}

		resp, err = session.Send(ctx, parts...)
		if err != nil {
			return "", fmt.Errorf("generate after tool round %d: %w", round+1, err)
		}
	}

	return responseText(resp), nil
}

func declareTools(defs []tools.Definition) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		properties := make(map[string]*genai.Schema, len(def.Parameters))
		for name, prop := range def.Parameters {
			properties[name] = &genai.Schema{
				Type:        schemaType(prop.Type),
				Description: prop.Description,
			}
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   def.Required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func schemaType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if call, ok := part.(genai.FunctionCall); ok {
				calls = append(calls, call)
			}
		}
	}
	return calls
}

func responseText(resp *genai.GenerateContentResponse) string {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				return string(text)
			}
		}
	}
	return ""
}
