package ops

import (
	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
	"github.com/hpungsan/qdpx/internal/refcheck"
)

// ValidateInput contains parameters for the Validate operation. Nil flags
// fall back to the configuration.
type ValidateInput struct {
	Path         string
	Strict       *bool
	CheckSources *bool
	Sink         diag.Sink
}

// ValidateOutput contains the result of a reference check.
type ValidateOutput struct {
	Path   string           `json:"path,omitempty"`
	Valid  bool             `json:"valid"`
	Error  string           `json:"error,omitempty"`
	Report *refcheck.Report `json:"report"`
}

// ValidateOptions builds validator options from cfg and optional overrides.
func ValidateOptions(cfg *config.Config, strict, checkSources *bool, sink diag.Sink) refcheck.Options {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	opts := refcheck.Options{CheckSources: cfg.CheckSources, Sink: sink}
	if cfg.StrictReferences {
		opts.Mode = refcheck.Strict
	}
	if strict != nil {
		opts.Mode = refcheck.Lenient
		if *strict {
			opts.Mode = refcheck.Strict
		}
	}
	if checkSources != nil {
		opts.CheckSources = *checkSources
	}
	return opts
}

// Validate loads the file at input.Path and checks its references.
func Validate(cfg *config.Config, input ValidateInput) (*ValidateOutput, error) {
	loaded, err := LoadProject(input.Path, cfg, input.Sink)
	if err != nil {
		return nil, err
	}
	out, err := CheckProject(loaded.Project, ValidateOptions(cfg, input.Strict, input.CheckSources, input.Sink))
	if err != nil {
		return nil, err
	}
	out.Path = loaded.Path
	return out, nil
}

// CheckProject runs the reference validator over p. A strict-mode reference
// failure or an empty Sources element is reported in the output rather than
// returned as an error.
func CheckProject(p *model.Project, opts refcheck.Options) (*ValidateOutput, error) {
	rep, err := refcheck.Validate(p, opts)
	out := &ValidateOutput{Report: rep}
	if err != nil {
		if rep == nil || !(errors.Is(err, errors.ErrReference) || errors.Is(err, errors.ErrSchemaViolation)) {
			return nil, err
		}
		out.Error = err.Error()
		return out, nil
	}
	out.Valid = rep.OK()
	return out, nil
}
