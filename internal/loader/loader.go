// Package loader reads query documents (YAML, JSON or CUE) and builds the
// query IR from them.
//
// Documents name connectors; a ConnectorResolver (normally the config
// catalog) turns those names into connector descriptions. Building collects
// every problem in the document before failing, so one run reports them
// all.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fedplan/internal/ir"
	"github.com/roach88/fedplan/internal/queryir"
)

// ConnectorResolver resolves connector names used in documents.
type ConnectorResolver interface {
	Connector(name string) (*queryir.DataConnector, error)
}

// Format is the syntax of a query document.
type Format int

const (
	// FormatYAML covers YAML and JSON documents.
	FormatYAML Format = iota
	// FormatCUE is a CUE document whose evaluated value is the query.
	FormatCUE
)

func (f Format) String() string {
	if f == FormatCUE {
		return "cue"
	}
	return "yaml"
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return 0, &LoadError{
			Code:    ErrCodeUnknownFormat,
			Message: fmt.Sprintf("unsupported document extension %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path)),
		}
	}
}

// LoadFile reads a document and builds its query.
func LoadFile(path string, connectors ConnectorResolver) (*queryir.ModelSelection, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(doc, connectors)
}

// ReadFile reads and parses a document, choosing the format by extension.
func ReadFile(path string) (*Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
	}
	doc, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	slog.Debug("read query document", "path", path, "format", format.String())
	return doc, nil
}

// Parse decodes a document. filename is used in CUE positions only.
func Parse(data []byte, format Format, filename string) (*Document, error) {
	if format == FormatCUE {
		js, err := exportCUE(data, filename)
		if err != nil {
			return nil, err
		}
		data = js
	}
	return parseYAML(data)
}

// parseYAML decodes YAML (and therefore JSON) with unknown keys rejected.
func parseYAML(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: "document is empty"}
		}
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error()}
	}
	return &doc, nil
}

// exportCUE evaluates a CUE document and exports it as JSON. The value
// must be concrete: a query document cannot leave fields open.
func exportCUE(data []byte, filename string) ([]byte, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(err)
	}
	js, err := v.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(err)
	}
	return js, nil
}

// cueLoadError converts CUE errors into LoadErrors, keeping positions.
func cueLoadError(err error) error {
	var errs *multierror.Error
	for _, e := range cueerrors.Errors(err) {
		le := &LoadError{Code: ErrCodeCUEFailed, Message: e.Error()}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			le.Pos = positions[0]
		}
		errs = multierror.Append(errs, le)
	}
	if errs == nil {
		return &LoadError{Code: ErrCodeCUEFailed, Message: err.Error()}
	}
	return errs
}

// Fingerprint hashes a document's content independently of its syntax:
// the same query written as YAML, JSON or CUE hashes equally, and so do
// reformatted copies.
func Fingerprint(data []byte, format Format, filename string) (string, error) {
	var js []byte
	if format == FormatCUE {
		exported, err := exportCUE(data, filename)
		if err != nil {
			return "", err
		}
		js = exported
	} else {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return "", &LoadError{Code: ErrCodeParseFailed, Message: err.Error()}
		}
		encoded, err := json.Marshal(raw)
		if err != nil {
			return "", &LoadError{Code: ErrCodeParseFailed, Message: err.Error()}
		}
		js = encoded
	}
	return ir.ContentHash(ir.DomainQuery, js)
}
