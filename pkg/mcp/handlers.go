package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/testbridge/pkg/ir"
	"github.com/gnana997/testbridge/pkg/ir/irwriter"
)

// targetSummary is the compact listing shape; the full document is
// returned by get_target.
type targetSummary struct {
	TargetID     string `json:"targetId"`
	Page         string `json:"page,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	Role         string `json:"role,omitempty"`
	Preferred    string `json:"preferredStrategy"`
}

type testSummary struct {
	TestID     string `json:"testId"`
	Name       string `json:"name"`
	SuiteID    string `json:"suiteId"`
	Steps      int    `json:"steps"`
	Assertions int    `json:"assertions"`
}

func (s *Server) handleListTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetString("page", "")

	var out []targetSummary
	for _, t := range s.bundle.Targets {
		if page != "" && t.Context.Page != page {
			continue
		}
		out = append(out, summarizeTarget(t))
	}
	return jsonResult(out)
}

func (s *Server) handleGetTarget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("target_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, ok := s.bundle.TargetByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no target with id %q", id)), nil
	}
	return jsonResult(target)
}

func (s *Server) handleSearchTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	needle := strings.ToLower(query)

	var out []targetSummary
	for _, t := range s.bundle.Targets {
		if targetMatches(t, needle) {
			out = append(out, summarizeTarget(t))
		}
	}
	return jsonResult(out)
}

func (s *Server) handleListSuites(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.bundle.Suites)
}

func (s *Server) handleListTests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	suiteID := req.GetString("suite_id", "")

	var out []testSummary
	for _, t := range s.bundle.Tests {
		if suiteID != "" && t.SuiteID != suiteID {
			continue
		}
		out = append(out, testSummary{
			TestID:     t.TestID,
			Name:       t.Name,
			SuiteID:    t.SuiteID,
			Steps:      len(t.Steps),
			Assertions: len(t.Assertions),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGetTest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("test_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	test, ok := s.bundle.TestByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no test with id %q", id)), nil
	}
	return jsonResult(test)
}

func summarizeTarget(t ir.Target) targetSummary {
	return targetSummary{
		TargetID:     t.TargetID,
		Page:         t.Context.Page,
		BusinessName: t.Semantic.BusinessName,
		Role:         t.Semantic.Role,
		Preferred:    t.PreferredStrategy,
	}
}

func targetMatches(t ir.Target, needle string) bool {
	if strings.Contains(strings.ToLower(t.Semantic.BusinessName), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Semantic.Role), needle) {
		return true
	}
	for _, s := range t.SelectorStrategies {
		if strings.Contains(strings.ToLower(s.Value), needle) {
			return true
		}
	}
	return false
}

// jsonResult serializes a value as a sorted-key JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := irwriter.MarshalSorted(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
