package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"tara/tools"
)

type toolInfo struct {
	Name         string         `json:"name"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"input_schema"`
	OutputSchema map[string]any `json:"output_schema"`
}

type toolResult struct {
	Tool   string         `json:"tool"`
	Output map[string]any `json:"output"`
}

func registerTools(api huma.API, registry *tools.Registry) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tools",
		Method:      http.MethodGet,
		Path:        "/tools",
		Summary:     "List the food lookup tools",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []toolInfo `json:"body"`
	}, error) {
		list := registry.GetTools()
		infos := make([]toolInfo, 0, len(list))
		for _, t := range list {
			in, err := schemaMap(t.InputSchema())
			if err != nil {
				return nil, handleError(err)
			}
			out, err := schemaMap(t.OutputSchema())
			if err != nil {
				return nil, handleError(err)
			}
			infos = append(infos, toolInfo{
				Name:         t.Name(),
				Title:        t.Title(),
				Description:  t.Description(),
				InputSchema:  in,
				OutputSchema: out,
			})
		}
		return &struct {
			Body []toolInfo `json:"body"`
		}{Body: infos}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "call-tool",
		Method:      http.MethodPost,
		Path:        "/tools/{name}",
		Summary:     "Run a food lookup tool",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, in *struct {
		Name string         `path:"name"`
		Body map[string]any `json:"body" required:"false"`
	}) (*struct {
		Body toolResult `json:"body"`
	}, error) {
		tool, err := registry.GetTool(in.Name)
		if err != nil {
			return nil, newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
		}
		call := tools.Call{Name: in.Name, Input: in.Body}
		if call.Input == nil {
			call.Input = map[string]any{}
		}
		out, err := tool.Run(ctx, call.Input)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body toolResult `json:"body"`
		}{Body: toolResult{Tool: call.Name, Output: out}}, nil
	})
}

func schemaMap(s *jsonschema.Schema) (map[string]any, error) {
	if s == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
