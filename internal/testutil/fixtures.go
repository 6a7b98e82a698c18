// Package testutil provides shared fixtures for tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/tagproxy/internal/manifest"
	"github.com/roach88/tagproxy/internal/tag"
)

// BashManifest is a small but complete header fixture: identity, an I18N
// summary in two locales, file lists and requires/provides.
const BashManifest = `
origin: /srv/bash-5.2-3.x86_64.rpm
locales: [C, de]
tags:
  NAME: bash
  VERSION: "5.2"
  RELEASE: "3"
  BUILDTIME: 1700000000
  SUMMARY:
    type: i18n_string
    value:
      C: The GNU Bourne Again shell
      de: Die GNU Bourne Again Shell
  LICENSE: GPLv3+
  BASENAMES: [bash, bash.1]
  FILEMODES: {type: int16, value: [33261, 33188]}
  PROVIDENAME: [bash, /bin/bash]
  PROVIDEVERSION: ["5.2-3", ""]
  PROVIDEFLAGS: [8, 0]
  REQUIRENAME: [glibc, ncurses-libs]
  REQUIREVERSION: ["2.34", "6.2"]
  REQUIREFLAGS: [12, 12]
`

// Header parses a YAML manifest and fails the test on error. The header
// gets a fixed ID so traces stay deterministic.
func Header(t testing.TB, doc string) *tag.Header {
	t.Helper()
	h, err := manifest.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("manifest.Parse() failed: %v", err)
	}
	out, err := tag.UnmarshalWithID(tag.Marshal(h), "fixture")
	if err != nil {
		t.Fatalf("re-id fixture: %v", err)
	}
	out.SetOrigin(h.Origin())
	return out
}

// BashHeader returns the BashManifest header.
func BashHeader(t testing.TB) *tag.Header {
	return Header(t, BashManifest)
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
