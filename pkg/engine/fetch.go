package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aukilabs/go-tooling/pkg/errors"
	getter "github.com/hashicorp/go-getter"
)

// ErrTypeFetch classifies script download failures.
const ErrTypeFetch = "engine-fetch"

// MaxScriptSize bounds the size of a fetched script. HTTP downloads stop one
// byte past it; other sources are checked once fetched.
const MaxScriptSize = 1 << 20

// getters returns the default go-getter getters with HTTP reads capped just
// past MaxScriptSize, so an oversized body is cut short and then rejected.
func getters() map[string]getter.Getter {
	httpGetter := &getter.HttpGetter{
		Netrc:    true,
		MaxBytes: MaxScriptSize + 1,
	}

	out := make(map[string]getter.Getter, len(getter.Getters))
	for scheme, g := range getter.Getters {
		out[scheme] = g
	}
	out["http"] = httpGetter
	out["https"] = httpGetter
	return out
}

// Fetch downloads a height script from src into dir and returns its
// contents. src is any go-getter source: a local path, an http(s) URL or a
// forced getter such as "git::https://host/repo.git//scripts/bowl.zy".
func Fetch(ctx context.Context, src, dir string) (string, error) {
	pwd, err := os.Getwd()
	if err != nil {
		return "", errors.New("failed to resolve working directory").
			WithType(ErrTypeFetch).
			Wrap(err)
	}

	dst := filepath.Join(dir, "height.zy")
	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     dst,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getters(),
	}
	if err := client.Get(); err != nil {
		return "", errors.New("failed to fetch height script").
			WithType(ErrTypeFetch).
			WithTag("src", src).
			Wrap(err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return "", errors.New("fetched script is missing").
			WithType(ErrTypeFetch).
			WithTag("src", src).
			Wrap(err)
	}
	if info.Size() > MaxScriptSize {
		return "", errors.New("fetched script too large").
			WithType(ErrTypeFetch).
			WithTag("src", src).
			WithTag("size", info.Size()).
			WithTag("max", MaxScriptSize)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		return "", errors.New("failed to read fetched script").
			WithType(ErrTypeFetch).
			Wrap(err)
	}
	return string(data), nil
}
