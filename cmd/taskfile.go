package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"sigs.k8s.io/yaml"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
)

// loadTaskFile reads a YAML task file, or a JSON one that may carry comments
// and trailing commas.
func loadTaskFile(path string) (*topology.TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read task file: %w", err)
	}
	return parseTaskFile(path, data)
}

func parseTaskFile(path string, data []byte) (*topology.TaskFile, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	file := &topology.TaskFile{}
	if err := yaml.UnmarshalStrict(data, file); err != nil {
		return nil, fmt.Errorf("unable to parse task file %s: %w", path, err)
	}
	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("task file %s has no tasks", path)
	}
	return file, nil
}
