package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/docs"
	"github.com/dgoubkine/pnl/renderer"
)

const model = "gemini-2.5-pro"

// Book is the slice of the store the analyst is allowed to read.
type Book interface {
	Deals(ctx context.Context) ([]pnl.DealTerms, error)
	Rows(ctx context.Context, facility string) ([]pnl.Row, error)
}

const analystInstruction = `
You are the analyst of a private credit desk. The book is a set of revolving
credit facilities whose daily PnL this tool accrues.

Ground every figure in a tool call: list the book before guessing at a
facility, and pull the facility report before quoting any balance, rate or
PnL. When the user asks how a figure is computed, fetch the relevant
documentation topic and answer from it.

Answers are rendered as markdown in a terminal, keep them compact.
`

// NewAnalyst creates the analyst expert over the given book.
func NewAnalyst(book Book) *Expert {
	lib := []Function{bookFunc(book), reportFunc(book), topicFunc()}
	return &Expert{
		Name:      "Analyst",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: analystInstruction}}},
		},
		Library: NewLibrary(lib),
	}
}

func bookFunc(book Book) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "book",
			Description: `Lists every facility on the book with the latest reported terms:
client, commitment, advances outstanding, margin, unused fee, weighted
average life and maturity.`,
			Parameters: &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table, one line per facility.",
			},
		},
		Exec: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			deals, err := book.Deals(ctx)
			if err != nil {
				return errorResponse(id, "book", err)
			}
			return outputResponse(id, "book", renderer.DealsMarkdown(deals))
		},
	}
}

func reportFunc(book Book) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "facility_report",
			Description: `Returns the full report of one facility: its terms, the derived
figures, and every stored daily accrual row with its PnL.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"facility": {
						Type:        genai.TypeString,
						Description: "The facility identifier, e.g. G9930. Use the book function to list them.",
					},
				},
				Required: []string{"facility"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report of the facility.",
			},
		},
		Exec: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			facility, ok := args["facility"].(string)
			if !ok {
				return errorResponse(id, "facility_report", fmt.Errorf("argument 'facility' is not a string but %T", args["facility"]))
			}

			deals, err := book.Deals(ctx)
			if err != nil {
				return errorResponse(id, "facility_report", err)
			}
			var deal *pnl.DealTerms
			for i := range deals {
				if deals[i].Facility == facility {
					deal = &deals[i]
					break
				}
			}
			if deal == nil {
				return errorResponse(id, "facility_report", fmt.Errorf("unknown facility %q, use the book function to list them", facility))
			}

			rows, err := book.Rows(ctx, facility)
			if err != nil {
				return errorResponse(id, "facility_report", err)
			}
			if len(rows) == 0 {
				return errorResponse(id, "facility_report", fmt.Errorf("no stored accruals for %q, the run command has not covered it yet", facility))
			}

			deal.Derive()
			return outputResponse(id, "facility_report", renderer.RenderDealDetail(renderer.NewDealDetail(*deal, rows, nil)))
		},
	}
}

func topicFunc() *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "documentation",
			Description: `Returns one documentation topic explaining how the tool works
and how the figures are computed. Available topics:

` + must(docs.GetTopic("readme")),
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"topic": {
						Type:        genai.TypeString,
						Description: `The topic name, or "*" for all of them.`,
					},
				},
				Required: []string{"topic"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "The topic content as markdown.",
			},
		},
		Exec: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			topic, ok := args["topic"].(string)
			if !ok {
				return errorResponse(id, "documentation", fmt.Errorf("argument 'topic' is not a string but %T", args["topic"]))
			}
			content, err := docs.GetTopic(topic)
			if err != nil {
				return errorResponse(id, "documentation", err)
			}
			return outputResponse(id, "documentation", content)
		},
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
