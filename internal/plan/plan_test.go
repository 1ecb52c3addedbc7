package plan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/streaming/pipe"
)

func TestParse(t *testing.T) {
	p, err := Parse(strings.NewReader(`
name: backup
stages:
  - type: tar
    path: ./data
    entries: [a.txt]
  - type: gzip
    level: 9
  - type: file
    path: ./out.tar.gz
`))
	require.NoError(t, err)

	assert.Equal(t, "backup", p.Name)
	require.Len(t, p.Stages, 3)
	assert.Equal(t, []string{"a.txt"}, p.Stages[0].Entries)
	require.NotNil(t, p.Stages[1].Level)
	assert.Equal(t, 9, *p.Stages[1].Level)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "stages:\n  - type: gzip\n", "name is required"},
		{"no stages", "name: x\nstages: []\n", "stages must have at least 1 elements"},
		{"unknown type", "name: x\nstages:\n  - type: zip\n", "stages[0].type must be one of"},
		{"file without path", "name: x\nstages:\n  - type: file\n", "stages[0].path"},
		{"bad url", "name: x\nstages:\n  - type: http\n    url: not a url\n", "stages[0].url must be a valid URL"},
		{"throttle without rate", "name: x\nstages:\n  - type: throttle\n", "stages[0].rate is required"},
		{"unknown field", "name: x\nbogus: 1\nstages:\n  - type: gzip\n", "field bogus not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildMisplacedStage(t *testing.T) {
	p := &Plan{Name: "x", Stages: []StageSpec{
		{Type: TypeFile, Path: "in"},
		{Type: TypeUntar, Path: "out"},
		{Type: TypeFile, Path: "out"},
	}}

	_, err := p.Build(context.Background(), Deps{})
	require.Error(t, err)
	assert.True(t, pferrors.IsValidationError(err))
	assert.Contains(t, err.Error(), "stages[1].type")
}

func TestBuildHTTPNeedsURL(t *testing.T) {
	p := &Plan{Name: "x", Stages: []StageSpec{{Type: TypeHTTP}, {Type: TypeFile, Path: "out"}}}

	_, err := p.Build(context.Background(), Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stages[0].url is required")
}

func TestLoadAndRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))
	out := filepath.Join(dir, "restored")

	planPath := filepath.Join(dir, "plan.yml")
	require.NoError(t, os.WriteFile(planPath, []byte(`
name: roundtrip
stages:
  - type: tar
    path: `+dir+`
    entries: [a.txt]
  - type: gzip
  - type: throttle
    rate: 1048576
  - type: gunzip
  - type: untar
    path: `+out+`
`), 0o644))

	p, err := Load(planPath)
	require.NoError(t, err)

	stages, err := p.Build(context.Background(), Deps{})
	require.NoError(t, err)
	require.Len(t, stages, 5)

	require.NoError(t, pipe.Run(stages, pipe.Config{Name: p.Name}))

	data, err := os.ReadFile(filepath.Join(out, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
}

func TestBuildCreatesFreshStages(t *testing.T) {
	p := &Plan{Name: "x", Stages: []StageSpec{{Type: TypeFile, Path: "in"}, {Type: TypeFile, Path: "out"}}}

	first, err := p.Build(context.Background(), Deps{})
	require.NoError(t, err)
	second, err := p.Build(context.Background(), Deps{})
	require.NoError(t, err)

	for i := range first {
		assert.NotSame(t, first[i], second[i])
	}
}
