package problem

import (
	"bytes"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var logger = log.DefaultLogger.With("section", "problem")

// File is a problem as it is encoded on disk, before any name is resolved
type File struct {
	Classes     []ClassDecl      `yaml:"classes" toml:"classes"`
	Variables   []ParamDecl      `yaml:"variables" toml:"variables"`
	Constraints []ConstraintDecl `yaml:"constraints" toml:"constraints"`
}

type ClassDecl struct {
	Name       string      `yaml:"name" toml:"name"`
	Params     []ParamDecl `yaml:"params,omitempty" toml:"params,omitempty"`
	Supertypes []string    `yaml:"supertypes,omitempty" toml:"supertypes,omitempty"`
	Final      bool        `yaml:"final,omitempty" toml:"final,omitempty"`
}

// ParamDecl declares a class type parameter or a variable to infer.
// For variables Variance is the variance of the position the variable
// occurs at, which picks the solution it gets
type ParamDecl struct {
	Name     string   `yaml:"name" toml:"name"`
	Variance string   `yaml:"variance,omitempty" toml:"variance,omitempty"`
	Bounds   []string `yaml:"bounds,omitempty" toml:"bounds,omitempty"`
}

// ConstraintDecl is either Sub <: Sup, or Equal[0] = Equal[1]
type ConstraintDecl struct {
	Sub   string   `yaml:"sub,omitempty" toml:"sub,omitempty"`
	Sup   string   `yaml:"sup,omitempty" toml:"sup,omitempty"`
	Equal []string `yaml:"equal,omitempty" toml:"equal,omitempty"`
}

type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	}
	return "", errors.Errorf("unknown problem file format %q", s)
}

// FormatOf guesses the format of a file from its extension
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.Errorf("cannot tell the format of %s without an extension", path)
	}
	return ParseFormat(ext)
}

// Decode reads a problem file. Unknown fields are rejected
func Decode(data []byte, format Format) (*File, error) {
	f := &File{}
	switch format {
	case YAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(f); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("problem file is empty")
			}
			return nil, errors.Wrap(err, "parsing yaml problem")
		}
	case TOML:
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.Strict(true)
		if err := decoder.Decode(f); err != nil {
			return nil, errors.Wrap(err, "parsing toml problem")
		}
	default:
		return nil, errors.Errorf("unknown problem file format %q", format)
	}
	return f, nil
}

// Load reads the problem file at path. An empty format is guessed from the
// file extension
func Load(path string, format Format) (*File, error) {
	if format == "" {
		var err error
		if format, err = FormatOf(path); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	logger.Debug("loading problem", "path", path, "format", format)
	f, err := Decode(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return f, nil
}
