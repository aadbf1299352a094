package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"depth_load",
		"depth_visualize",
		"depth_dimensions",
		"depth_roughness",
		"depth_analyze",
		"depth_region_stats",
		"depth_roughness_map",
		"depth_histogram",
		"depth_sample",
		"depth_measure_distance",
		"depth_crop",
		"depth_edges",
		"depth_overlay",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok || len(props) == 0 {
				t.Fatal("InputSchema properties missing")
			}

			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			hasPath := false
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required %q is not a property", r)
				}
				if r == "path" {
					hasPath = true
				}
			}
			if !hasPath {
				t.Error("'path' should be required")
			}
		})
	}
}

func TestToolDefinitions_BoxTools(t *testing.T) {
	boxTools := map[string]bool{
		"depth_dimensions":    true,
		"depth_roughness":     true,
		"depth_region_stats":  true,
		"depth_roughness_map": true,
		"depth_crop":          true,
	}

	for _, tool := range GetToolDefinitions() {
		if !boxTools[tool.Name] {
			continue
		}
		required := tool.InputSchema["required"].([]string)
		want := map[string]bool{"x1": false, "y1": false, "x2": false, "y2": false}
		for _, r := range required {
			if _, ok := want[r]; ok {
				want[r] = true
			}
		}
		for coord, found := range want {
			if !found {
				t.Errorf("%s: %s should be required", tool.Name, coord)
			}
		}
	}
}

func TestSchema_LaterGroupWins(t *testing.T) {
	s := schema(nil,
		map[string]interface{}{"a": prop("string", "first")},
		map[string]interface{}{"a": prop("integer", "second")},
	)
	props := s["properties"].(map[string]interface{})
	a := props["a"].(map[string]interface{})
	if a["type"] != "integer" {
		t.Errorf("got %v, want integer", a["type"])
	}
	if _, ok := s["required"]; ok {
		t.Error("empty required list should be omitted")
	}
}
