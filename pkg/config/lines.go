package config

import (
	"fmt"
	"os"

	"github.com/travigo/cta-train-analytics/pkg/ctdf"
	"gopkg.in/yaml.v3"
)

type linesFile struct {
	Lines []ctdf.TrainLine `yaml:"lines"`
}

// Lines returns the lines to fan out over, from CTA_LINES_FILE when set
func (c *Config) Lines() ([]ctdf.TrainLine, error) {
	if c.LinesFile == "" {
		return ctdf.DefaultTrainLines(), nil
	}

	return LoadLines(c.LinesFile)
}

func LoadLines(path string) ([]ctdf.TrainLine, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lines file: %w", err)
	}

	return ParseLines(contents)
}

func ParseLines(contents []byte) ([]ctdf.TrainLine, error) {
	var file linesFile
	if err := yaml.Unmarshal(contents, &file); err != nil {
		return nil, fmt.Errorf("parse lines file: %w", err)
	}

	if len(file.Lines) == 0 {
		return nil, fmt.Errorf("lines file declares no lines")
	}

	seen := map[string]bool{}
	for i, line := range file.Lines {
		if line.Code == "" || line.Name == "" {
			return nil, fmt.Errorf("line %d needs both code and name", i)
		}
		if seen[line.Code] {
			return nil, fmt.Errorf("line code %s declared twice", line.Code)
		}
		seen[line.Code] = true
	}

	return file.Lines, nil
}
