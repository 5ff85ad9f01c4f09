package server

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"menubard/internal/model"
	"menubard/internal/platform"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("list_items",
			mcp.WithDescription("List menu bar item windows with section assignment and resolved owner"),
		),
		s.handleListItems,
	)

	s.mcp.AddTool(
		mcp.NewTool("capture_item",
			mcp.WithDescription("Capture a menu bar item window to an image"),
			mcp.WithNumber("window-id", mcp.Description("Window ID to capture"), mcp.Required()),
			mcp.WithString("bbox", mcp.Description("Capture bounds as x,y,w,h (default: the window's frame)")),
			mcp.WithString("format", mcp.Description("Image format: png, jpg (default: png)")),
			mcp.WithNumber("quality", mcp.Description("JPEG quality 1-100 (default: 80)")),
			mcp.WithNumber("scale", mcp.Description("Scale factor 0.1-1.0 (default: 1.0)")),
		),
		s.handleCaptureItem,
	)

	s.mcp.AddTool(
		mcp.NewTool("configuration",
			mcp.WithDescription("Return the current item configuration: ordered item identifiers per section"),
		),
		s.handleConfiguration,
	)

	s.mcp.AddTool(
		mcp.NewTool("section_state",
			mcp.WithDescription("Report the hiding state of each section"),
		),
		s.handleSectionState,
	)

	s.mcp.AddTool(
		mcp.NewTool("toggle_section",
			mcp.WithDescription("Toggle a section between shown and hidden"),
			mcp.WithString("section", mcp.Description("Section name: hidden or always-hidden"), mcp.Required()),
		),
		s.handleToggleSection,
	)

	s.mcp.AddTool(
		mcp.NewTool("show_all",
			mcp.WithDescription("Reveal every section"),
		),
		s.handleShowAll,
	)

	s.mcp.AddTool(
		mcp.NewTool("resolve_owner",
			mcp.WithDescription("Resolve which process owns a menu bar item window"),
			mcp.WithNumber("window-id", mcp.Description("Window ID to resolve"), mcp.Required()),
		),
		s.handleResolveOwner,
	)
}

func toYAML(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func (s *Server) handleListItems(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engineMu.Lock()
	records := s.engine.ListItems()
	s.engineMu.Unlock()
	return mcp.NewToolResultText(toYAML(records)), nil
}

func (s *Server) handleCaptureItem(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	windowID := model.WindowID(intParam(params, "window-id", 0))
	if windowID == 0 {
		return mcp.NewToolResultError("window-id is required"), nil
	}

	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	var bounds *model.Rect
	if raw := stringParam(params, "bbox", ""); raw != "" {
		parsed, err := platform.ParseBBox(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		bounds = parsed
	} else {
		frame, ok := s.engine.GetWindowFrame(windowID)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("window %d has no frame", windowID)), nil
		}
		bounds = &frame
	}

	format := stringParam(params, "format", "png")
	data, err := s.engine.CaptureWindow(windowID, bounds, platform.CaptureOptions{
		Format:  format,
		Quality: intParam(params, "quality", 80),
		Scale:   floatParam(params, "scale", 1.0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mime := "image/png"
	if format == "jpg" || format == "jpeg" {
		mime = "image/jpeg"
	}
	return mcp.NewToolResultImage("captured item window", base64.StdEncoding.EncodeToString(data), mime), nil
}

func (s *Server) handleConfiguration(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engineMu.Lock()
	cfg := s.engine.CurrentConfiguration().Serialize()
	s.engineMu.Unlock()
	return mcp.NewToolResultText(toYAML(cfg)), nil
}

func (s *Server) handleSectionState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engineMu.Lock()
	defer s.engineMu.Unlock()
	states := make(map[string]string, len(model.Sections()))
	for _, sec := range model.Sections() {
		states[sec.String()] = s.engine.SectionState(sec).String()
	}
	return mcp.NewToolResultText(toYAML(states)), nil
}

func (s *Server) handleToggleSection(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "section", "")
	sec, err := model.ParseSection(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sec.IsFirst() {
		return mcp.NewToolResultError("the visible section is never hidden"), nil
	}
	s.engineMu.Lock()
	s.engine.ToggleSection(sec)
	state := s.engine.SectionState(sec)
	s.engineMu.Unlock()
	return mcp.NewToolResultText(toYAML(map[string]string{sec.String(): state.String()})), nil
}

func (s *Server) handleShowAll(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engineMu.Lock()
	s.engine.ShowAllSections()
	s.engineMu.Unlock()
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) handleResolveOwner(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	windowID := model.WindowID(intParam(request.GetArguments(), "window-id", 0))
	if windowID == 0 {
		return mcp.NewToolResultError("window-id is required"), nil
	}
	s.engineMu.Lock()
	pid, ok := s.engine.ResolveOwner(windowID)
	label := s.engine.OwnerLabel(windowID)
	s.engineMu.Unlock()

	result := map[string]interface{}{"owner": label}
	if ok {
		result["pid"] = pid
	}
	return mcp.NewToolResultText(toYAML(result)), nil
}

func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func floatParam(params map[string]interface{}, key string, def float64) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return def
}
