package tui

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/deshima-dev/desim/internal/domain"
)

var reLine = regexp.MustCompile(`(?i)\bline\s+(\d+)\b`)

func userMessage(err error) string {
	if err == nil {
		return ""
	}

	var oe *domain.OpError
	if errors.As(err, &oe) {
		switch oe.Kind {

		case domain.KindNotFound:
			switch {
			case strings.Contains(oe.Op, "yamlinstrument"):
				return "Instrument not found"
			case strings.Contains(oe.Op, "yamlconditions"):
				return "Conditions not found"
			case strings.Contains(oe.Op, "atmtable"):
				return "Atmosphere table missing (desim atm fetch <url>)"
			case strings.Contains(oe.Op, "runstore"):
				return "Run not found"
			case strings.Contains(oe.Op, "workspacefinder.findroot"):
				return "Workspace not found"
			}
			return "Not found"

		case domain.KindInvalidConfig:
			p := domain.ParamName(err)
			if errors.Is(err, domain.ErrOutOfRange) {
				if p != "" {
					return p + " outside the atmosphere table"
				}
				return "Outside the atmosphere table"
			}
			if p != "" {
				return "Invalid parameter " + p
			}

			base := "config"
			if strings.TrimSpace(oe.Path) != "" {
				base = filepath.Base(oe.Path)
			}

			line := extractLine(err.Error())
			if line != "" {
				return "Invalid YAML at " + base + " line " + line
			}

			if looksLikeYAMLProblem(err.Error()) {
				return "Invalid YAML at " + base
			}
			return "Invalid config"

		default:
			return "Unexpected error (see logs)"
		}
	}

	if looksLikeYAMLProblem(err.Error()) {
		line := extractLine(err.Error())
		if line != "" {
			return "Invalid YAML line " + line
		}
		return "Invalid YAML"
	}

	return "Unexpected error (see logs)"
}

func looksLikeYAMLProblem(s string) bool {
	ls := strings.ToLower(s)
	return strings.Contains(ls, "yaml:") || strings.Contains(ls, "did not find expected") || strings.Contains(ls, "cannot unmarshal")
}

func extractLine(s string) string {
	m := reLine.FindStringSubmatch(s)
	if len(m) == 2 {
		return m[1]
	}
	return ""
}
