// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Train: {
	name: string & !=""
	modules: [...{project: =~"^[a-z][a-z0-9-]*$", version: string}]
}
`

type testTrain struct {
	Name    string `json:"name"`
	Modules []struct {
		Project string `json:"project"`
		Version string `json:"version"`
	} `json:"modules"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	data := []byte(`name: "2024.1", modules: [{project: "commons", version: "3.3.0"}]`)
	res, err := ParseAndDecode[testTrain]([]byte(testSchema), data, "#Train", WithFilename("train.cue"))
	if err != nil {
		t.Fatalf("ParseAndDecode() unexpected error: %v", err)
	}
	if res.Value.Name != "2024.1" || len(res.Value.Modules) != 1 || res.Value.Modules[0].Project != "commons" {
		t.Errorf("decoded = %+v", res.Value)
	}
}

func TestParseAndDecode_ValidationErrorHasPath(t *testing.T) {
	t.Parallel()

	data := []byte(`name: "2024.1", modules: [{project: "commons", version: "3.3.0"}, {project: "Bad", version: "1"}]`)
	_, err := ParseAndDecode[testTrain]([]byte(testSchema), data, "#Train", WithFilename("train.cue"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "train.cue") || !strings.Contains(err.Error(), "modules[1].project") {
		t.Errorf("error = %q, want file name and field path", err)
	}
}

func TestParseAndDecode_FileSize(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[testTrain]([]byte(testSchema), []byte(`name: "x"`), "#Train", WithMaxFileSize(3))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("error = %v, want size limit error", err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}
	cause := errors.New("boom")
	err := FormatError(cause, "x.cue")
	if !errors.Is(err, cause) || !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("FormatError(plain) = %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"":                        nil,
		"name":                    {"name"},
		"modules[0].version":      {"modules", "0", "version"},
		"shell.projects.jpa":      {"shell", "projects", "jpa"},
		"modules[2].depends_on[0]": {"modules", "2", "depends_on", "0"},
	}
	for want, path := range tests {
		if got := formatPath(path); got != want {
			t.Errorf("formatPath(%v) = %q, want %q", path, got, want)
		}
	}
}
