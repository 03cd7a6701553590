// Package credentials supplies the secret token used to authenticate to the
// external model source. Sources are tried in order; absence is ErrNoToken.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"promptd/internal/common/fsutil"
)

// ErrNoToken reports that no source produced a token.
var ErrNoToken = errors.New("no access token configured")

// Source yields a token. Implementations return ErrNoToken (possibly wrapped)
// when they hold no token, and other errors for read/parse failures.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token; the empty string means none.
type Static string

func (s Static) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(string(s)), nil
}

// Env reads the token from an environment variable.
type Env struct{ Var string }

func (e Env) Token(context.Context) (string, error) {
	v := strings.TrimSpace(os.Getenv(e.Var))
	if v == "" {
		return "", fmt.Errorf("%s unset: %w", e.Var, ErrNoToken)
	}
	return v, nil
}

// Dotenv reads Var from a .env file without touching the process environment.
// A missing file counts as no token.
type Dotenv struct {
	Path string
	Var  string
}

func (d Dotenv) Token(context.Context) (string, error) {
	p, err := fsutil.ExpandHome(d.Path)
	if err != nil {
		return "", err
	}
	if p == "" || !fsutil.PathExists(p) {
		return "", fmt.Errorf("dotenv %q: %w", d.Path, ErrNoToken)
	}
	vals, err := godotenv.Read(p)
	if err != nil {
		return "", fmt.Errorf("read dotenv %q: %w", p, err)
	}
	v := strings.TrimSpace(vals[d.Var])
	if v == "" {
		return "", fmt.Errorf("%s not in %q: %w", d.Var, p, ErrNoToken)
	}
	return v, nil
}

// SecretsFile reads a TOML secrets file shaped like:
//
//	[huggingface]
//	token = "hf_..."
type SecretsFile struct {
	Path    string
	Section string
	Key     string
}

// Default section and key of SecretsFile.
const (
	DefaultSection = "huggingface"
	DefaultKey     = "token"
)

func (s SecretsFile) Token(context.Context) (string, error) {
	p, err := fsutil.ExpandHome(s.Path)
	if err != nil {
		return "", err
	}
	if p == "" || !fsutil.PathExists(p) {
		return "", fmt.Errorf("secrets %q: %w", s.Path, ErrNoToken)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read secrets: %w", err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(b, &doc); err != nil {
		return "", fmt.Errorf("parse secrets %q: %w", p, err)
	}
	section, key := s.Section, s.Key
	if section == "" {
		section = DefaultSection
	}
	if key == "" {
		key = DefaultKey
	}
	table, _ := doc[section].(map[string]any)
	v, _ := table[key].(string)
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s.%s not in %q: %w", section, key, p, ErrNoToken)
	}
	return strings.TrimSpace(v), nil
}

// Chain tries each source in order and returns the first token found.
// Non-ErrNoToken errors stop the search.
type Chain []Source

func (c Chain) Token(ctx context.Context) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		tok, err := src.Token(ctx)
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, ErrNoToken) {
			return "", err
		}
	}
	return "", ErrNoToken
}
